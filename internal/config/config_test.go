package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.RouteStore != "postgres" {
		t.Fatalf("expected postgres route store by default, got %q", cfg.RouteStore)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("expected default smtp port")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ROUTE_STORE", "redis")
	t.Setenv("MAPS_API_KEY", "maps-key")
	t.Setenv("SMTP_PORT", "2525")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.RouteStore != "redis" {
		t.Fatalf("expected override route store")
	}
	if cfg.MapsAPIKey != "maps-key" {
		t.Fatalf("expected override maps key")
	}
	if cfg.SMTPPort != 2525 {
		t.Fatalf("expected override smtp port")
	}
}
