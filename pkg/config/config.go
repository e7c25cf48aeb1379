// Package config provides configuration structures and loading for the
// roster backend and the headless client.
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/cache"
	"github.com/Sternrassler/mlb-roster-client/pkg/client"
	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

// Config represents the complete application configuration.
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream" mapstructure:"upstream"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Backend  BackendConfig  `yaml:"backend" mapstructure:"backend"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// UpstreamConfig describes the statistics provider.
type UpstreamConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	Season         int           `yaml:"season" mapstructure:"season"` // 0 = current year
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
}

// ServerConfig represents the relay backend listener.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// BackendConfig points the headless client at a relay backend.
type BackendConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CacheConfig selects and tunes the snapshot store.
type CacheConfig struct {
	Backend    string        `yaml:"backend" mapstructure:"backend"` // memory, redis, sqlite
	RedisAddr  string        `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisDB    int           `yaml:"redis_db" mapstructure:"redis_db"`
	SQLitePath string        `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Namespace  string        `yaml:"namespace" mapstructure:"namespace"`
	MaxAge     time.Duration `yaml:"max_age" mapstructure:"max_age"`
	MinPlayers int           `yaml:"min_players" mapstructure:"min_players"`
}

// PipelineConfig represents batch progression and projection settings.
type PipelineConfig struct {
	BatchSize      int    `yaml:"batch_size" mapstructure:"batch_size"`
	PageSize       int    `yaml:"page_size" mapstructure:"page_size"`
	MaxConcurrency int    `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	Shuffle        string `yaml:"shuffle" mapstructure:"shuffle"` // all or incoming
	Seed           uint64 `yaml:"seed" mapstructure:"seed"`       // 0 = random
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQLite = "sqlite"
)

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			BaseURL:        client.DefaultStatsAPIURL,
			Timeout:        30 * time.Second,
			UserAgent:      "mlb-roster-client/1.0",
			MaxRetries:     3,
			InitialBackoff: time.Second,
		},
		Server: ServerConfig{
			Port: 3000,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:3000/api/mlb",
		},
		Cache: CacheConfig{
			Backend:    CacheSQLite,
			RedisAddr:  "localhost:6379",
			SQLitePath: "mlb-roster.db",
			Namespace:  "mlb",
			MaxAge:     cache.DefaultMaxAge,
			MinPlayers: cache.DefaultMinPlayers,
		},
		Pipeline: PipelineConfig{
			BatchSize:      10,
			PageSize:       roster.DefaultPageSize,
			MaxConcurrency: 10,
			Shuffle:        string(roster.ShuffleAll),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Addr returns the listen address of the relay backend.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// CachePolicy converts the cache section into a snapshot policy.
func (c *Config) CachePolicy() cache.Config {
	policy := cache.DefaultConfig()
	policy.Namespace = c.Cache.Namespace
	policy.MaxAge = c.Cache.MaxAge
	policy.MinPlayers = c.Cache.MinPlayers
	return policy
}

// RetryConfig converts the upstream retry settings into a client override.
// It returns nil while they match the defaults, keeping the per-class policies.
func (c *Config) RetryConfig() *client.RetryConfig {
	retry := client.DefaultRetryConfig()
	if c.Upstream.MaxRetries <= 0 ||
		(c.Upstream.MaxRetries == retry.MaxAttempts && c.Upstream.InitialBackoff == retry.InitialBackoff) {
		return nil
	}
	retry.MaxAttempts = c.Upstream.MaxRetries
	if c.Upstream.InitialBackoff > 0 {
		retry.InitialBackoff = c.Upstream.InitialBackoff
	}
	return &retry
}
