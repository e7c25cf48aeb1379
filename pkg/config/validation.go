package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Sternrassler/mlb-roster-client/pkg/logging"
	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateUpstream()...)
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateCache()...)
	errors = append(errors, c.validatePipeline()...)

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateUpstream() ValidationErrors {
	var errors ValidationErrors

	if !validURL(c.Upstream.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "upstream.base_url",
			Message: "base_url must be an absolute http(s) URL",
		})
	}
	if c.Upstream.Season < 0 {
		errors = append(errors, ValidationError{
			Field:   "upstream.season",
			Message: "season cannot be negative",
		})
	}
	if c.Upstream.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "upstream.timeout",
			Message: "timeout cannot be negative",
		})
	}
	if strings.TrimSpace(c.Upstream.UserAgent) == "" {
		errors = append(errors, ValidationError{
			Field:   "upstream.user_agent",
			Message: "user_agent is required",
		})
	}
	if c.Upstream.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "upstream.max_retries",
			Message: "max_retries cannot be negative",
		})
	}
	return errors
}

func (c *Config) validateServer() ValidationErrors {
	var errors ValidationErrors

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}
	if !validURL(c.Backend.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "backend.base_url",
			Message: "base_url must be an absolute http(s) URL",
		})
	}
	return errors
}

func (c *Config) validateCache() ValidationErrors {
	var errors ValidationErrors

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			errors = append(errors, ValidationError{
				Field:   "cache.redis_addr",
				Message: "redis_addr is required for the redis backend",
			})
		}
	case CacheSQLite:
		if strings.TrimSpace(c.Cache.SQLitePath) == "" {
			errors = append(errors, ValidationError{
				Field:   "cache.sqlite_path",
				Message: "sqlite_path is required for the sqlite backend",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "cache.backend",
			Message: "backend must be 'memory', 'redis', or 'sqlite'",
		})
	}

	if c.Cache.MaxAge <= 0 {
		errors = append(errors, ValidationError{
			Field:   "cache.max_age",
			Message: "max_age must be positive",
		})
	}
	if c.Cache.MinPlayers < 0 {
		errors = append(errors, ValidationError{
			Field:   "cache.min_players",
			Message: "min_players cannot be negative",
		})
	}
	return errors
}

func (c *Config) validatePipeline() ValidationErrors {
	var errors ValidationErrors

	if c.Pipeline.BatchSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.batch_size",
			Message: "batch_size must be positive",
		})
	}
	if c.Pipeline.PageSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.page_size",
			Message: "page_size must be positive",
		})
	}
	if c.Pipeline.MaxConcurrency <= 0 {
		errors = append(errors, ValidationError{
			Field:   "pipeline.max_concurrency",
			Message: "max_concurrency must be positive",
		})
	}
	if _, err := roster.ParseShuffleMode(c.Pipeline.Shuffle); err != nil {
		errors = append(errors, ValidationError{
			Field:   "pipeline.shuffle",
			Message: "shuffle must be 'all' or 'incoming'",
		})
	}
	return errors
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
