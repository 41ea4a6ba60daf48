package auth

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	loginAttempts = 5
	loginWindow   = 15 * time.Minute
)

// Limiter is a fixed-window attempt counter kept in Redis. A nil client
// allows everything.
type Limiter struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, prefix: "culturecompass:login:", limit: loginAttempts, window: loginWindow}
}

// Allow counts one attempt for key and reports whether it is within the window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	k := l.prefix + strings.ToLower(strings.TrimSpace(key))
	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return true, err
		}
	}
	return n <= l.limit, nil
}

// Reset clears the counter after a successful sign-in.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, l.prefix+strings.ToLower(strings.TrimSpace(key))).Err()
}
