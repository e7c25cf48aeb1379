package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Defaults(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero batch size", func(c *Config) { c.Pipeline.BatchSize = 0 }, "pipeline.batch_size"},
		{"negative page size", func(c *Config) { c.Pipeline.PageSize = -1 }, "pipeline.page_size"},
		{"zero concurrency", func(c *Config) { c.Pipeline.MaxConcurrency = 0 }, "pipeline.max_concurrency"},
		{"unknown shuffle", func(c *Config) { c.Pipeline.Shuffle = "sometimes" }, "pipeline.shuffle"},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.RedisAddr = "" }, "cache.redis_addr"},
		{"sqlite without path", func(c *Config) { c.Cache.SQLitePath = " " }, "cache.sqlite_path"},
		{"zero max age", func(c *Config) { c.Cache.MaxAge = 0 }, "cache.max_age"},
		{"negative min players", func(c *Config) { c.Cache.MinPlayers = -5 }, "cache.min_players"},
		{"relative upstream url", func(c *Config) { c.Upstream.BaseURL = "/api/v1" }, "upstream.base_url"},
		{"missing user agent", func(c *Config) { c.Upstream.UserAgent = "" }, "upstream.user_agent"},
		{"negative season", func(c *Config) { c.Upstream.Season = -1 }, "upstream.season"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad backend url", func(c *Config) { c.Backend.BaseURL = "localhost:3000" }, "backend.base_url"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for %s, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidate_MemoryCacheNeedsNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Backend = CacheMemory
	cfg.Cache.SQLitePath = ""
	cfg.Cache.RedisAddr = ""

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestValidationErrors_Message(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.BatchSize = 0
	cfg.Pipeline.PageSize = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "validation failed:") {
		t.Errorf("unexpected message prefix: %s", msg)
	}
	if !strings.Contains(msg, "pipeline.batch_size") || !strings.Contains(msg, "pipeline.page_size") {
		t.Errorf("expected both fields in message: %s", msg)
	}
}
