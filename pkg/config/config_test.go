package config

import (
	"testing"
	"time"
)

func TestServerConfig_Addr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 3000, ":3000"},
		{"127.0.0.1", 8080, "127.0.0.1:8080"},
	}
	for _, tt := range tests {
		if got := (ServerConfig{Host: tt.host, Port: tt.port}).Addr(); got != tt.want {
			t.Errorf("Addr(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestCachePolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Namespace = "test"
	cfg.Cache.MaxAge = time.Hour
	cfg.Cache.MinPlayers = 5

	policy := cfg.CachePolicy()
	if policy.Namespace != "test" || policy.MaxAge != time.Hour || policy.MinPlayers != 5 {
		t.Errorf("unexpected policy: %+v", policy)
	}
	if policy.Now == nil {
		t.Error("expected policy clock to be set")
	}
}

func TestRetryConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.RetryConfig() != nil {
		t.Error("expected default settings to keep per-class policies")
	}

	cfg.Upstream.MaxRetries = 5
	cfg.Upstream.InitialBackoff = 200 * time.Millisecond
	retry := cfg.RetryConfig()
	if retry == nil {
		t.Fatal("expected override")
	}
	if retry.MaxAttempts != 5 || retry.InitialBackoff != 200*time.Millisecond {
		t.Errorf("unexpected retry config: %+v", retry)
	}

	cfg.Upstream.MaxRetries = 0
	if cfg.RetryConfig() != nil {
		t.Error("expected no override for max_retries 0")
	}
}
