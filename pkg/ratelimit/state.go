// Package ratelimit implements upstream backoff tracking and request gating.
// It watches for 429 Too Many Requests and 503 Service Unavailable responses
// and honors their Retry-After header, so that a burst of roster fetches does
// not keep hammering a provider that already asked us to slow down.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Redis keys for shared backoff state.
const (
	RedisKeyBlockedUntil = "mlb:rate_limit:blocked_until"
	RedisKeyLastStatus   = "mlb:rate_limit:last_status"
)

const (
	// DefaultRetryAfter is used when a 429 carries no usable Retry-After header.
	DefaultRetryAfter = 30 * time.Second

	// MaxRetryAfter caps the backoff an upstream can impose on us.
	MaxRetryAfter = 5 * time.Minute
)

// BackoffState is the current upstream backoff.
type BackoffState struct {
	// BlockedUntil is when requests may resume. Zero means not blocked.
	BlockedUntil time.Time `json:"blocked_until"`

	// LastStatus is the HTTP status that imposed the backoff.
	LastStatus int `json:"last_status"`

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time `json:"last_update"`
}

// IsBlocked reports whether requests must wait at now.
func (s *BackoffState) IsBlocked(now time.Time) bool {
	return now.Before(s.BlockedUntil)
}

// TimeUntilReset returns the remaining backoff. Returns 0 if not blocked.
func (s *BackoffState) TimeUntilReset(now time.Time) time.Duration {
	d := s.BlockedUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// IsStale returns true if the state data is older than the given duration.
func (s *BackoffState) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(s.LastUpdate) > maxAge
}

// ImposesBackoff reports whether a response status asks the client to back off.
func ImposesBackoff(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable
}

// ParseRetryAfter interprets a Retry-After header given as delay-seconds or an
// HTTP date. The result is capped at MaxRetryAfter.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		d = time.Duration(secs) * time.Second
	} else {
		at, err := http.ParseTime(value)
		if err != nil {
			return 0, false
		}
		d = at.Sub(now)
		if d < 0 {
			d = 0
		}
	}

	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	return d, true
}
