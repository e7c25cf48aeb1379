// Package pipeline drives the incremental roster aggregation: it loads the
// team directory, fetches roster batches one at a time until the directory is
// exhausted, merges them into the aggregate set and persists every step.
//
// Progression is a pure Transition(State, Event) -> (State, []Effect). The
// Controller owns the only copy of State inside its event loop, runs the
// effects and publishes an immutable Snapshot after every event. Fetch results
// carry the generation they were started under; Refresh bumps the generation
// so results still in flight at that moment are dropped on arrival.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/batch"
	"github.com/Sternrassler/mlb-roster-client/pkg/cache"
	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrNotRunning is returned by Refresh after Run has returned.
var ErrNotRunning = errors.New("pipeline is not running")

// Config holds controller configuration.
type Config struct {
	// BatchSize is the number of teams per batch.
	BatchSize int

	// Batch configures the roster fan-out within a batch.
	Batch batch.Config

	// DirectoryTimeout bounds the team directory request (0 = none).
	DirectoryTimeout time.Duration

	// Shuffle selects the merge permutation policy.
	Shuffle roster.ShuffleMode

	// Seed makes merges reproducible when non-zero.
	Seed uint64
}

// DefaultConfig returns batches of 10 teams and whole-set reshuffles.
func DefaultConfig() Config {
	return Config{
		BatchSize:        10,
		Batch:            batch.DefaultConfig(),
		DirectoryTimeout: 30 * time.Second,
		Shuffle:          roster.ShuffleAll,
	}
}

// Snapshot is an immutable view of the pipeline. Players is never modified
// after publication; readers may keep it.
type Snapshot struct {
	Phase      Phase
	Generation uint64
	Teams      []roster.Team
	Players    []roster.PlayerRecord
	Cursor     int
	InFlight   bool
	Err        error

	// FailedTeams counts teams skipped in the current generation.
	FailedTeams int
}

// TeamCount returns the directory size.
func (s *Snapshot) TeamCount() int {
	return len(s.Teams)
}

// Controller runs the progression state machine.
type Controller struct {
	loader  *DirectoryLoader
	fetcher *batch.Fetcher
	store   cache.Store
	merger  *roster.Merger
	config  Config
	logger  zerolog.Logger

	events  chan Event
	stopped chan struct{}
	started atomic.Bool

	// owned by the event loop
	state       State
	aggregate   []roster.PlayerRecord
	failedTeams int

	snapshot atomic.Pointer[Snapshot]
	mu       sync.Mutex
	changed  chan struct{}
}

// New creates a controller over a roster source and a snapshot store.
func New(source roster.Source, store cache.Store, cfg Config) (*Controller, error) {
	if source == nil {
		return nil, fmt.Errorf("roster source is required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive (got %d)", cfg.BatchSize)
	}
	if cfg.Shuffle == "" {
		cfg.Shuffle = roster.ShuffleAll
	}
	if _, err := roster.ParseShuffleMode(string(cfg.Shuffle)); err != nil {
		return nil, err
	}

	merger := roster.NewMerger(nil, cfg.Shuffle)
	if cfg.Seed != 0 {
		merger = roster.NewSeededMerger(cfg.Seed, cfg.Shuffle)
	}

	logger := log.With().Str("component", "pipeline").Logger()

	c := &Controller{
		loader:  NewDirectoryLoader(source, cfg.DirectoryTimeout, logger),
		fetcher: batch.NewFetcher(source, cfg.Batch),
		store:   store,
		merger:  merger,
		config:  cfg,
		logger:  logger,
		events:  make(chan Event, 16),
		stopped: make(chan struct{}),
		changed: make(chan struct{}),
	}
	c.publish()
	return c, nil
}

// Run restores from the store or starts loading, then processes events until
// ctx is cancelled. It returns after all fetches it started have exited.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline already started")
	}
	defer close(c.stopped)

	var wg sync.WaitGroup
	defer wg.Wait()

	c.dispatch(ctx, &wg, Start{Cached: c.loadCache(ctx)})

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug().Msg("Pipeline stopping")
			return ctx.Err()
		case ev := <-c.events:
			c.dispatch(ctx, &wg, ev)
		}
	}
}

// Refresh clears the cache and restarts from an empty aggregate set. It is
// valid in every phase. Fetches in flight are not aborted; their results are
// discarded.
func (c *Controller) Refresh(ctx context.Context) error {
	select {
	case c.events <- Refresh{}:
		return nil
	case <-c.stopped:
		return ErrNotRunning
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current immutable snapshot.
func (c *Controller) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Project filters and pages the current aggregate set.
func (c *Controller) Project(q roster.Query) roster.Page {
	return roster.Project(c.Snapshot().Players, q)
}

// WaitFor blocks until cond holds for a published snapshot and returns it.
func (c *Controller) WaitFor(ctx context.Context, cond func(*Snapshot) bool) (*Snapshot, error) {
	for {
		c.mu.Lock()
		snap := c.snapshot.Load()
		changed := c.changed
		c.mu.Unlock()

		if cond(snap) {
			return snap, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// WaitSettled blocks until the pipeline reaches Complete or Error.
func (c *Controller) WaitSettled(ctx context.Context) (*Snapshot, error) {
	return c.WaitFor(ctx, func(s *Snapshot) bool { return s.Phase.Settled() })
}

func (c *Controller) loadCache(ctx context.Context) *cache.Entry {
	entry, err := c.store.Load(ctx)
	switch {
	case err == nil:
		c.logger.Info().
			Int("team_count", len(entry.Teams)).
			Int("players", len(entry.Players)).
			Msg("Restored aggregate from cache")
		return entry
	case errors.Is(err, cache.ErrCacheMiss):
		c.logger.Debug().Msg("No usable cached aggregate")
	case errors.Is(err, cache.ErrInvalidEntry):
		c.logger.Warn().Err(err).Msg("Cached aggregate is corrupt - reloading")
	default:
		c.logger.Warn().Err(err).Msg("Cache load failed - reloading")
	}
	return nil
}

// dispatch applies one event and runs the resulting effects.
func (c *Controller) dispatch(ctx context.Context, wg *sync.WaitGroup, ev Event) {
	prev := c.state
	next, effects := Transition(prev, ev)

	if _, isRefresh := ev.(Refresh); isRefresh {
		refreshesTotal.Inc()
		c.failedTeams = 0
		c.logger.Info().Uint64("generation", next.Generation).Msg("Refresh requested")
	} else if len(effects) == 0 && isResult(ev) && next.Phase == prev.Phase && next.Cursor == prev.Cursor {
		staleResultsTotal.Inc()
		c.logger.Debug().
			Uint64("generation", prev.Generation).
			Str("event", fmt.Sprintf("%T", ev)).
			Msg("Dropping stale fetch result")
		return
	}

	if fetched, ok := ev.(BatchFetched); ok && fetched.Gen == prev.Generation {
		c.failedTeams += fetched.Failed
	}

	c.state = next
	for _, eff := range effects {
		c.execute(ctx, wg, eff)
	}

	if next.Phase != prev.Phase {
		c.logPhase(prev.Phase, next)
	}
	c.publish()
}

func isResult(ev Event) bool {
	switch ev.(type) {
	case DirectoryLoaded, DirectoryFailed, BatchFetched, BatchAborted:
		return true
	}
	return false
}

func (c *Controller) execute(ctx context.Context, wg *sync.WaitGroup, eff Effect) {
	switch e := eff.(type) {
	case LoadDirectory:
		wg.Add(1)
		go func() {
			defer wg.Done()
			teams, err := c.loader.Load(ctx)
			if err != nil {
				c.send(ctx, DirectoryFailed{Gen: e.Gen, Err: err})
				return
			}
			c.send(ctx, DirectoryLoaded{Gen: e.Gen, Teams: teams})
		}()

	case FetchBatch:
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := c.fetcher.FetchBatch(ctx, e.Teams, e.Cursor, c.config.BatchSize)
			if err != nil {
				c.send(ctx, BatchAborted{Gen: e.Gen, From: e.Cursor, Err: err})
				return
			}
			c.send(ctx, BatchFetched{
				Gen:        e.Gen,
				From:       e.Cursor,
				NextCursor: b.NextCursor,
				Players:    b.Players,
				Failed:     len(b.Failed),
			})
		}()

	case Merge:
		before := len(c.aggregate)
		c.aggregate = c.merger.Merge(c.aggregate, e.Players)
		c.logger.Debug().
			Int("incoming", len(e.Players)).
			Int("added", len(c.aggregate)-before).
			Int("players", len(c.aggregate)).
			Msg("Merged batch")

	case Persist:
		if err := c.store.Save(ctx, c.state.Teams, c.aggregate); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to persist aggregate")
		}

	case ClearCache:
		if err := c.store.Clear(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to clear cache")
		}

	case Reset:
		c.aggregate = nil

	case Restore:
		c.aggregate = e.Players
	}
}

// send delivers a fetch result to the loop unless the controller is stopping.
func (c *Controller) send(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Controller) logPhase(prev Phase, s State) {
	event := c.logger.Info()
	if s.Phase == PhaseError {
		event = c.logger.Error().Err(s.Err)
	}
	event.
		Str("from", prev.String()).
		Str("to", s.Phase.String()).
		Uint64("generation", s.Generation).
		Int("cursor", s.Cursor).
		Int("team_count", len(s.Teams)).
		Int("players", len(c.aggregate)).
		Msg("Pipeline phase changed")
}

// publish stores a new snapshot and wakes every WaitFor.
func (c *Controller) publish() {
	snap := &Snapshot{
		Phase:       c.state.Phase,
		Generation:  c.state.Generation,
		Teams:       c.state.Teams,
		Players:     c.aggregate,
		Cursor:      c.state.Cursor,
		InFlight:    c.state.InFlight,
		Err:         c.state.Err,
		FailedTeams: c.failedTeams,
	}

	c.mu.Lock()
	c.snapshot.Store(snap)
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()

	cursorGauge.Set(float64(snap.Cursor))
	playersGauge.Set(float64(len(snap.Players)))
	recordPhase(snap.Phase)
}
