package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override (MLB_CACHE_BACKEND, ...).
const EnvPrefix = "MLB"

// Load reads configuration from the optional YAML file at configPath and the
// environment. An empty path skips the file; environment values win over it.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return LoadFromViper(v)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	setDefaults(v, cfg)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("upstream.base_url", cfg.Upstream.BaseURL)
	v.SetDefault("upstream.season", cfg.Upstream.Season)
	v.SetDefault("upstream.timeout", cfg.Upstream.Timeout)
	v.SetDefault("upstream.user_agent", cfg.Upstream.UserAgent)
	v.SetDefault("upstream.max_retries", cfg.Upstream.MaxRetries)
	v.SetDefault("upstream.initial_backoff", cfg.Upstream.InitialBackoff)

	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)

	v.SetDefault("backend.base_url", cfg.Backend.BaseURL)

	v.SetDefault("cache.backend", cfg.Cache.Backend)
	v.SetDefault("cache.redis_addr", cfg.Cache.RedisAddr)
	v.SetDefault("cache.redis_db", cfg.Cache.RedisDB)
	v.SetDefault("cache.sqlite_path", cfg.Cache.SQLitePath)
	v.SetDefault("cache.namespace", cfg.Cache.Namespace)
	v.SetDefault("cache.max_age", cfg.Cache.MaxAge)
	v.SetDefault("cache.min_players", cfg.Cache.MinPlayers)

	v.SetDefault("pipeline.batch_size", cfg.Pipeline.BatchSize)
	v.SetDefault("pipeline.page_size", cfg.Pipeline.PageSize)
	v.SetDefault("pipeline.max_concurrency", cfg.Pipeline.MaxConcurrency)
	v.SetDefault("pipeline.shuffle", cfg.Pipeline.Shuffle)
	v.SetDefault("pipeline.seed", cfg.Pipeline.Seed)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.pretty", cfg.Logging.Pretty)
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by container platforms.
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return fmt.Errorf("bind server.port: %w", err)
	}
	if err := v.BindEnv("upstream.base_url", EnvPrefix+"_UPSTREAM_BASE_URL", "UPSTREAM_BASE_URL"); err != nil {
		return fmt.Errorf("bind upstream.base_url: %w", err)
	}
	return nil
}

// Overrides contains CLI flag values that override file and environment.
type Overrides struct {
	LogLevel   string
	Pretty     bool
	Port       int
	Season     int
	BatchSize  int
	PageSize   int
	Cache      string
	SQLitePath string
	BackendURL string
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.Pretty {
		c.Logging.Pretty = true
	}
	if o.Port > 0 {
		c.Server.Port = o.Port
	}
	if o.Season > 0 {
		c.Upstream.Season = o.Season
	}
	if o.BatchSize > 0 {
		c.Pipeline.BatchSize = o.BatchSize
	}
	if o.PageSize > 0 {
		c.Pipeline.PageSize = o.PageSize
	}
	if o.Cache != "" {
		c.Cache.Backend = o.Cache
	}
	if o.SQLitePath != "" {
		c.Cache.SQLitePath = o.SQLitePath
	}
	if o.BackendURL != "" {
		c.Backend.BaseURL = o.BackendURL
	}
}
