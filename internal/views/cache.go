package views

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"culturecompass/internal/route"
)

const (
	DefaultCacheKey = "culturecompass:listing"
	DefaultCacheTTL = 30 * time.Second
)

// ListingCache holds the unfiltered Discover listing. It is dropped on
// every route write. A nil client turns every call into a miss.
type ListingCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
	log *zap.SugaredLogger
}

func NewListingCache(rdb *redis.Client, log *zap.SugaredLogger) *ListingCache {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ListingCache{rdb: rdb, key: DefaultCacheKey, ttl: DefaultCacheTTL, log: log}
}

func (c *ListingCache) Get(ctx context.Context) ([]route.Route, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("listing cache read failed", "error", err)
		}
		return nil, false
	}
	var routes []route.Route
	if err := json.Unmarshal(raw, &routes); err != nil {
		c.log.Warnw("listing cache corrupt", "error", err)
		return nil, false
	}
	return routes, true
}

func (c *ListingCache) Set(ctx context.Context, routes []route.Route) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(routes)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		c.log.Warnw("listing cache write failed", "error", err)
	}
}

// RouteChanged invalidates the listing.
func (c *ListingCache) RouteChanged(ctx context.Context, ev route.Event) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		c.log.Warnw("listing cache invalidate failed", "event", ev.Type, "route_id", ev.RouteID, "error", err)
	}
}
