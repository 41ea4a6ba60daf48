package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"culturecompass/internal/route"
)

// AllRoutes is the topic that receives every route event.
const AllRoutes = "*"

const (
	channelPrefix = "culturecompass:"
	channelSuffix = ":events"
)

// Hub fans route events out to websocket clients. With Redis configured,
// events go through pub/sub so every instance delivers them exactly once;
// without it they are delivered in-process.
type Hub struct {
	redis   *redis.Client
	log     *zap.SugaredLogger
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex

	ready      chan struct{}
	subscribed atomic.Bool
	cancel     context.CancelFunc
}

type Client struct {
	Topic string
	Send  chan []byte
}

type message struct {
	Type    route.EventType `json:"type"`
	RouteID string          `json:"routeId"`
}

func NewHub(redisClient *redis.Client, log *zap.SugaredLogger) *Hub {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		redis:   redisClient,
		log:     log,
		clients: map[string]map[*Client]struct{}{},
		ready:   make(chan struct{}),
		cancel:  cancel,
	}

	if redisClient != nil {
		go h.subscribeRedis(ctx)
	} else {
		close(h.ready)
	}
	return h
}

// Ready is closed once the hub can receive events.
func (h *Hub) Ready() <-chan struct{} { return h.ready }

func (h *Hub) Close() { h.cancel() }

// Register subscribes a client to one route id, or to AllRoutes.
func (h *Hub) Register(topic string) *Client {
	if topic == "" {
		topic = AllRoutes
	}
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

// Unregister is idempotent.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topicClients := h.clients[client.Topic]
	if _, ok := topicClients[client]; !ok {
		return
	}
	delete(topicClients, client)
	if len(topicClients) == 0 {
		delete(h.clients, client.Topic)
	}
	close(client.Send)
}

func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// RouteChanged publishes a route event to the feed.
func (h *Hub) RouteChanged(ctx context.Context, ev route.Event) {
	payload, err := json.Marshal(message{Type: ev.Type, RouteID: ev.RouteID})
	if err != nil {
		return
	}
	h.Broadcast(ctx, ev.RouteID, payload)
}

// Broadcast publishes through Redis while this hub holds a live subscription,
// and delivers in-process otherwise.
func (h *Hub) Broadcast(ctx context.Context, routeID string, payload []byte) {
	if h.redis == nil || !h.subscribed.Load() {
		h.deliver(routeID, payload)
		return
	}
	if err := h.redis.Publish(ctx, redisChannel(routeID), payload).Err(); err != nil {
		h.log.Warnw("redis publish failed, delivering locally", "route_id", routeID, "error", err)
		h.deliver(routeID, payload)
	}
}

// deliver holds the read lock while sending so Unregister cannot close a
// channel mid-send. Slow clients drop messages.
func (h *Hub) deliver(routeID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, topic := range []string{routeID, AllRoutes} {
		for client := range h.clients[topic] {
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.redis.PSubscribe(ctx, channelPrefix+"*"+channelSuffix)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Errorw("redis subscribe failed", "error", err)
		close(h.ready)
		return
	}
	h.subscribed.Store(true)
	defer h.subscribed.Store(false)
	close(h.ready)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.deliver(routeIDFromChannel(msg.Channel), []byte(msg.Payload))
		}
	}
}

func redisChannel(routeID string) string {
	return channelPrefix + routeID + channelSuffix
}

func routeIDFromChannel(ch string) string {
	if !strings.HasPrefix(ch, channelPrefix) || !strings.HasSuffix(ch, channelSuffix) ||
		len(ch) <= len(channelPrefix)+len(channelSuffix) {
		return ""
	}
	return ch[len(channelPrefix) : len(ch)-len(channelSuffix)]
}
