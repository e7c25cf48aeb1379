package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
	"github.com/rs/zerolog"
)

// DirectoryLoadError is fatal to the pipeline until the next refresh.
type DirectoryLoadError struct {
	Err error
}

func (e *DirectoryLoadError) Error() string {
	return fmt.Sprintf("load team directory: %v", e.Err)
}

func (e *DirectoryLoadError) Unwrap() error {
	return e.Err
}

// DirectoryLoader fetches the team directory once per cold start or refresh.
type DirectoryLoader struct {
	source  roster.Source
	timeout time.Duration
	logger  zerolog.Logger
}

// NewDirectoryLoader creates a loader. timeout <= 0 means no extra deadline.
func NewDirectoryLoader(source roster.Source, timeout time.Duration, logger zerolog.Logger) *DirectoryLoader {
	return &DirectoryLoader{source: source, timeout: timeout, logger: logger}
}

// Load returns the directory or a *DirectoryLoadError.
func (l *DirectoryLoader) Load(ctx context.Context) ([]roster.Team, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	teams, err := l.source.Teams(ctx)
	if err != nil {
		l.logger.Error().Err(err).Msg("Team directory load failed")
		return nil, &DirectoryLoadError{Err: err}
	}

	l.logger.Info().
		Int("team_count", len(teams)).
		Dur("duration", time.Since(start)).
		Msg("Team directory loaded")
	return teams, nil
}
