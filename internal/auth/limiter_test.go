package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLimiterFixedWindow(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	l := NewLimiter(rdb)
	ctx := context.Background()
	for i := 0; i < loginAttempts; i++ {
		ok, err := l.Allow(ctx, "a@b.co")
		if err != nil || !ok {
			t.Fatalf("attempt %d should pass: %v", i, err)
		}
	}
	if ok, _ := l.Allow(ctx, "A@B.co"); ok {
		t.Fatalf("expected limit to apply case-insensitively")
	}
	if ttl := srv.TTL("culturecompass:login:a@b.co"); ttl != loginWindow {
		t.Fatalf("expected window ttl, got %v", ttl)
	}

	if err := l.Reset(ctx, "a@b.co"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if ok, _ := l.Allow(ctx, "a@b.co"); !ok {
		t.Fatalf("expected allow after reset")
	}
}

func TestLimiterWithoutRedis(t *testing.T) {
	var l *Limiter
	if ok, err := l.Allow(context.Background(), "x"); !ok || err != nil {
		t.Fatalf("nil limiter should allow")
	}
	if ok, _ := NewLimiter(nil).Allow(context.Background(), "x"); !ok {
		t.Fatalf("limiter without client should allow")
	}
}
