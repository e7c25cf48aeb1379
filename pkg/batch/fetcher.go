package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mlb_batch_duration_seconds",
		Help:    "Duration of one roster batch (all teams of the slice)",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	teamFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlb_batch_team_failures_total",
		Help: "Total number of team roster fetches skipped because they failed",
	})

	playersFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlb_batch_players_fetched_total",
		Help: "Total number of player records produced by roster batches",
	})
)

// Config holds batch fetcher configuration.
type Config struct {
	// MaxConcurrency is the maximum number of parallel roster requests.
	MaxConcurrency int

	// Timeout bounds each roster request.
	Timeout time.Duration

	// Season is passed to the source; 0 lets the source choose.
	Season int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 10,
		Timeout:        15 * time.Second,
	}
}

// TeamError is a roster fetch failure for one team.
type TeamError struct {
	TeamID int
	Err    error
}

// Error implements the error interface.
func (e *TeamError) Error() string {
	return fmt.Sprintf("roster for team %d: %v", e.TeamID, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TeamError) Unwrap() error {
	return e.Err
}

// Batch is the result of one slice.
type Batch struct {
	// Players from every team that answered, in directory order.
	Players []roster.PlayerRecord

	// NextCursor is the end of the slice.
	NextCursor int

	// Failed lists the teams that were skipped.
	Failed []*TeamError
}

// Fetcher fetches roster slices from a source.
type Fetcher struct {
	source roster.Source
	config Config
}

// NewFetcher creates a batch fetcher.
func NewFetcher(source roster.Source, config Config) *Fetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Fetcher{
		source: source,
		config: config,
	}
}

// FetchBatch fetches rosters for teams[cursor:min(cursor+batchSize, len(teams))].
// Only invalid arguments and cancellation of ctx are errors.
func (f *Fetcher) FetchBatch(ctx context.Context, teams []roster.Team, cursor, batchSize int) (*Batch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive (got %d)", batchSize)
	}
	if cursor < 0 || cursor > len(teams) {
		return nil, fmt.Errorf("cursor %d out of range [0, %d]", cursor, len(teams))
	}

	start := time.Now()
	end := min(cursor+batchSize, len(teams))
	slice := teams[cursor:end]

	// one slot per team keeps directory order without locking
	records := make([][]roster.PlayerRecord, len(slice))
	failures := make([]*TeamError, len(slice))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.MaxConcurrency)

	for i, team := range slice {
		g.Go(func() error {
			teamCtx, cancel := context.WithTimeout(gctx, f.config.Timeout)
			defer cancel()

			entries, err := f.source.Roster(teamCtx, team.ID, f.config.Season)
			if err != nil {
				failures[i] = &TeamError{TeamID: team.ID, Err: err}
				return nil
			}

			records[i] = roster.Flatten(team, entries)
			log.Debug().
				Int("team_id", team.ID).
				Int("players", len(entries)).
				Msg("Fetched team roster")
			return nil
		})
	}

	// goroutines never return errors
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch batch at cursor %d: %w", cursor, err)
	}

	result := &Batch{NextCursor: end}
	for i := range slice {
		if failures[i] != nil {
			teamFailures.Inc()
			log.Warn().
				Err(failures[i].Err).
				Int("team_id", failures[i].TeamID).
				Int("cursor", cursor).
				Msg("Team roster fetch failed - skipping team")
			result.Failed = append(result.Failed, failures[i])
			continue
		}
		result.Players = append(result.Players, records[i]...)
	}

	duration := time.Since(start)
	batchDuration.Observe(duration.Seconds())
	playersFetched.Add(float64(len(result.Players)))

	log.Info().
		Int("cursor", cursor).
		Int("next_cursor", end).
		Int("team_count", len(teams)).
		Int("players", len(result.Players)).
		Int("failed_teams", len(result.Failed)).
		Dur("duration", duration).
		Msg("Batch complete")

	return result, nil
}
