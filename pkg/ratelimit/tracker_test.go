package ratelimit

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newLocalTracker(now *time.Time) *Tracker {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	tracker := NewTracker(nil, logger)
	tracker.SetClock(func() time.Time { return *now })
	return tracker
}

func TestUpdateFromResponse(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		retryAfter  string
		expectBlock bool
		expectWait  time.Duration
	}{
		{
			name:        "ok does not block",
			status:      http.StatusOK,
			expectBlock: false,
		},
		{
			name:        "server error does not block",
			status:      http.StatusInternalServerError,
			retryAfter:  "10",
			expectBlock: false,
		},
		{
			name:        "429 with retry-after",
			status:      http.StatusTooManyRequests,
			retryAfter:  "20",
			expectBlock: true,
			expectWait:  20 * time.Second,
		},
		{
			name:        "429 without retry-after uses default",
			status:      http.StatusTooManyRequests,
			expectBlock: true,
			expectWait:  DefaultRetryAfter,
		},
		{
			name:        "503 with retry-after",
			status:      http.StatusServiceUnavailable,
			retryAfter:  "5",
			expectBlock: true,
			expectWait:  5 * time.Second,
		},
		{
			name:        "503 without retry-after is retried, not blocked",
			status:      http.StatusServiceUnavailable,
			expectBlock: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
			tracker := newLocalTracker(&now)
			ctx := context.Background()

			headers := http.Header{}
			if tt.retryAfter != "" {
				headers.Set("Retry-After", tt.retryAfter)
			}

			if err := tracker.UpdateFromResponse(ctx, tt.status, headers); err != nil {
				t.Fatalf("UpdateFromResponse() error = %v", err)
			}

			state, err := tracker.GetState(ctx)
			if err != nil {
				t.Fatalf("GetState() error = %v", err)
			}
			if state.IsBlocked(now) != tt.expectBlock {
				t.Fatalf("IsBlocked() = %v, want %v", state.IsBlocked(now), tt.expectBlock)
			}
			if tt.expectBlock && state.TimeUntilReset(now) != tt.expectWait {
				t.Errorf("TimeUntilReset() = %v, want %v", state.TimeUntilReset(now), tt.expectWait)
			}
		})
	}
}

func TestShouldAllowRequest_BlocksUntilDeadline(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newLocalTracker(&now)
	ctx := context.Background()

	allowed, err := tracker.ShouldAllowRequest(ctx)
	if err != nil || !allowed {
		t.Fatalf("fresh tracker: allowed = %v, err = %v", allowed, err)
	}

	headers := http.Header{}
	headers.Set("Retry-After", "30")
	if err := tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	allowed, _ = tracker.ShouldAllowRequest(ctx)
	if allowed {
		t.Error("ShouldAllowRequest() = true during backoff, want false")
	}

	now = now.Add(30 * time.Second)
	allowed, _ = tracker.ShouldAllowRequest(ctx)
	if !allowed {
		t.Error("ShouldAllowRequest() = false after deadline, want true")
	}
}

func TestUpdateFromResponse_ShorterBackoffDoesNotShrink(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newLocalTracker(&now)
	ctx := context.Background()

	long := http.Header{}
	long.Set("Retry-After", "60")
	short := http.Header{}
	short.Set("Retry-After", "1")

	_ = tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, long)
	_ = tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, short)

	state, _ := tracker.GetState(ctx)
	if got := state.TimeUntilReset(now); got != time.Minute {
		t.Errorf("TimeUntilReset() = %v, want 1m", got)
	}
}

func TestReset(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := newLocalTracker(&now)
	ctx := context.Background()

	_ = tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, http.Header{})
	if err := tracker.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	allowed, _ := tracker.ShouldAllowRequest(ctx)
	if !allowed {
		t.Error("ShouldAllowRequest() = false after Reset, want true")
	}
}
