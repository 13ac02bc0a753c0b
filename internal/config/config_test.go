package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "SESSION_STORE", "SESSION_TTL", "SESSION_MAX_MESSAGES", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SessionTTL != 48*time.Hour {
		t.Fatalf("expected 48h session ttl, got %s", cfg.SessionTTL)
	}
	if cfg.SessionMaxMessages != 20 {
		t.Fatalf("expected 20 max messages, got %d", cfg.SessionMaxMessages)
	}
	if cfg.UseRedisSessions() {
		t.Fatalf("expected memory sessions by default")
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_STORE", " Redis ")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_MAX_MESSAGES", "30")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if !cfg.UseRedisSessions() {
		t.Fatalf("expected redis sessions, got %q", cfg.SessionStore)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected ttl override, got %s", cfg.SessionTTL)
	}
	if cfg.SessionMaxMessages != 30 {
		t.Fatalf("expected max messages override, got %d", cfg.SessionMaxMessages)
	}
	if cfg.RateLimitRPS != 0.5 {
		t.Fatalf("expected rps override, got %v", cfg.RateLimitRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected two origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("SESSION_MAX_MESSAGES", "many")
	cfg := Load()
	if cfg.SessionTTL != 48*time.Hour {
		t.Fatalf("expected default ttl on parse failure, got %s", cfg.SessionTTL)
	}
	if cfg.SessionMaxMessages != 20 {
		t.Fatalf("expected default max messages on parse failure, got %d", cfg.SessionMaxMessages)
	}
}
