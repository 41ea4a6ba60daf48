package route

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "culturecompass:routes"

// RedisStore keeps every route as one JSON list under a single key. It is
// the lightweight fallback for deployments without Postgres. A failed read
// or encode aborts the operation before anything is written.
type RedisStore struct {
	rdb *redis.Client
	key string
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key, now: time.Now}
}

func (s *RedisStore) Insert(ctx context.Context, r Route) (Route, error) {
	routes, err := s.load(ctx)
	if err != nil {
		return Route{}, err
	}
	now := s.now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = now
	r.UpdatedAt = now
	routes = append(routes, r)
	if err := s.save(ctx, routes); err != nil {
		return Route{}, err
	}
	return r, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Route, error) {
	routes, err := s.load(ctx)
	if err != nil {
		return Route{}, err
	}
	for _, r := range routes {
		if r.ID == id {
			return r, nil
		}
	}
	return Route{}, ErrNotFound
}

func (s *RedisStore) Replace(ctx context.Context, r Route, ifUpdatedAt *time.Time) (Route, error) {
	routes, err := s.load(ctx)
	if err != nil {
		return Route{}, err
	}
	for i, existing := range routes {
		if existing.ID != r.ID {
			continue
		}
		if ifUpdatedAt != nil && !existing.UpdatedAt.Equal(*ifUpdatedAt) {
			return Route{}, ErrConflict
		}
		r.CreatedAt = existing.CreatedAt
		r.Rating = existing.Rating
		r.ReviewsCount = existing.ReviewsCount
		r.UpdatedAt = s.now().UTC()
		routes[i] = r
		if err := s.save(ctx, routes); err != nil {
			return Route{}, err
		}
		return r, nil
	}
	return Route{}, ErrNotFound
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	routes, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := routes[:0]
	for _, r := range routes {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(routes) {
		return nil
	}
	return s.save(ctx, kept)
}

func (s *RedisStore) ListByCreator(ctx context.Context, creatorID string) ([]Route, error) {
	routes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := []Route{}
	for _, r := range routes {
		if r.CreatorID == creatorID {
			out = append(out, r)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *RedisStore) ListAll(ctx context.Context, limit int) ([]Route, error) {
	routes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(routes)
	if limit > 0 && len(routes) > limit {
		routes = routes[:limit]
	}
	return routes, nil
}

func (s *RedisStore) load(ctx context.Context) ([]Route, error) {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Route{}, nil
	}
	if err != nil {
		return nil, unavailable("read route list", err)
	}
	var routes []Route
	if err := json.Unmarshal(raw, &routes); err != nil {
		return nil, unavailable("decode route list", err)
	}
	return routes, nil
}

func (s *RedisStore) save(ctx context.Context, routes []Route) error {
	raw, err := json.Marshal(routes)
	if err != nil {
		return unavailable("encode route list", err)
	}
	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return unavailable("write route list", err)
	}
	return nil
}

func newestFirst(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].CreatedAt.After(routes[j].CreatedAt)
	})
}
