package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for backoff tracking.
var (
	backoffsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlb_rate_limit_backoffs_total",
		Help: "Total number of upstream responses that imposed a backoff, by status",
	}, []string{"status"})

	blocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlb_rate_limit_blocks_total",
		Help: "Total number of requests refused locally during an upstream backoff",
	})
)

// Tracker records upstream backoffs and gates requests.
// With a Redis client the state is shared by every process using the same
// Redis; without one it is kept in memory.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	local BackoffState
}

// NewTracker creates a new backoff tracker. redisClient may be nil.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the tracker clock (for testing).
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// GetState returns the current backoff state.
func (t *Tracker) GetState(ctx context.Context) (*BackoffState, error) {
	if t.redis == nil {
		t.mu.Lock()
		defer t.mu.Unlock()
		state := t.local
		return &state, nil
	}

	vals, err := t.redis.MGet(ctx, RedisKeyBlockedUntil, RedisKeyLastStatus).Result()
	if err != nil {
		return nil, fmt.Errorf("get backoff state: %w", err)
	}

	state := &BackoffState{}
	if s, ok := vals[0].(string); ok {
		var millis int64
		if _, err := fmt.Sscan(s, &millis); err != nil {
			return nil, fmt.Errorf("parse blocked until: %w", err)
		}
		state.BlockedUntil = time.UnixMilli(millis)
		state.LastUpdate = t.now()
	}
	if s, ok := vals[1].(string); ok {
		_, _ = fmt.Sscan(s, &state.LastStatus)
	}
	return state, nil
}

// UpdateFromResponse inspects a response status and headers. A 429 or 503
// starts (or extends) a backoff; any other status leaves the state unchanged.
func (t *Tracker) UpdateFromResponse(ctx context.Context, statusCode int, headers http.Header) error {
	if !ImposesBackoff(statusCode) {
		return nil
	}

	now := t.now()
	wait, ok := ParseRetryAfter(headers.Get("Retry-After"), now)
	if !ok {
		if statusCode != http.StatusTooManyRequests {
			// 503 without Retry-After is a plain server error, retried by the client
			return nil
		}
		wait = DefaultRetryAfter
	}

	state := BackoffState{
		BlockedUntil: now.Add(wait),
		LastStatus:   statusCode,
		LastUpdate:   now,
	}
	backoffsTotal.WithLabelValues(fmt.Sprintf("%d", statusCode)).Inc()

	if t.redis == nil {
		t.mu.Lock()
		if state.BlockedUntil.After(t.local.BlockedUntil) {
			t.local = state
		}
		t.mu.Unlock()
	} else if wait > 0 {
		pipe := t.redis.TxPipeline()
		pipe.Set(ctx, RedisKeyBlockedUntil, state.BlockedUntil.UnixMilli(), wait)
		pipe.Set(ctx, RedisKeyLastStatus, statusCode, wait)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("store backoff state in redis: %w", err)
		}
	}

	t.logger.Warn().
		Int("status", statusCode).
		Dur("retry_after", wait).
		Time("blocked_until", state.BlockedUntil).
		Msg("Upstream imposed backoff")

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, fmt.Errorf("get backoff state: %w", err)
	}

	now := t.now()
	if state.IsBlocked(now) {
		t.logger.Debug().
			Dur("wait_duration", state.TimeUntilReset(now)).
			Int("status", state.LastStatus).
			Msg("Upstream backoff active - refusing request")
		blocksTotal.Inc()
		return false, nil
	}
	return true, nil
}

// Reset clears any backoff.
func (t *Tracker) Reset(ctx context.Context) error {
	if t.redis == nil {
		t.mu.Lock()
		t.local = BackoffState{}
		t.mu.Unlock()
		return nil
	}
	if err := t.redis.Del(ctx, RedisKeyBlockedUntil, RedisKeyLastStatus).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("reset backoff state: %w", err)
	}
	return nil
}
