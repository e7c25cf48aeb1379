package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/mlb-roster-client/pkg/cache"
	"github.com/Sternrassler/mlb-roster-client/pkg/client"
	"github.com/Sternrassler/mlb-roster-client/pkg/config"
	"github.com/Sternrassler/mlb-roster-client/pkg/logging"
	"github.com/Sternrassler/mlb-roster-client/pkg/ratelimit"
	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

// resources owns everything opened from configuration.
type resources struct {
	redis   *redis.Client
	sqlite  *cache.SQLiteBackend
	store   cache.Store
	tracker *ratelimit.Tracker
}

func (r *resources) Close() {
	if r.sqlite != nil {
		_ = r.sqlite.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
}

// openResources connects the cache backend and the upstream backoff tracker.
// With the redis backend both share one client, so backoffs are shared across
// processes.
func openResources(ctx context.Context, cfg *config.Config) (*resources, error) {
	res := &resources{}
	var backend cache.Backend

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		res.redis = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := res.redis.Ping(pingCtx).Err(); err != nil {
			res.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
		}
		backend = cache.NewRedisBackend(res.redis)

	case config.CacheSQLite:
		db, err := cache.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, err
		}
		res.sqlite = db
		backend = db

	default:
		backend = cache.NewMemoryBackend()
	}

	res.store = cache.NewManager(backend, cfg.CachePolicy())
	res.tracker = ratelimit.NewTracker(res.redis, logging.NewLogger("upstream-backoff"))
	return res, nil
}

// newUpstreamClient builds an HTTP client for baseURL with the configured
// retry policy and backoff gate.
func newUpstreamClient(cfg *config.Config, baseURL, component string, tracker *ratelimit.Tracker) (*client.Client, error) {
	clientCfg := client.DefaultConfig(baseURL, cfg.Upstream.UserAgent)
	clientCfg.Timeout = cfg.Upstream.Timeout
	clientCfg.Retry = cfg.RetryConfig()
	clientCfg.RateLimiter = tracker
	clientCfg.Component = component
	return client.New(clientCfg)
}

// newSource returns the statistics provider when direct is set, otherwise the
// relay backend.
func newSource(cfg *config.Config, direct bool, tracker *ratelimit.Tracker) (roster.Source, error) {
	if direct {
		c, err := newUpstreamClient(cfg, cfg.Upstream.BaseURL, "statsapi-client", tracker)
		if err != nil {
			return nil, err
		}
		return client.NewStatsAPI(c, cfg.Upstream.Season), nil
	}

	// the relay does its own upstream backoff
	c, err := newUpstreamClient(cfg, cfg.Backend.BaseURL, "backend-client", nil)
	if err != nil {
		return nil, err
	}
	return client.NewBackend(c, cfg.Upstream.Season), nil
}
