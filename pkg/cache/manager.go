package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrCacheMiss indicates there is no usable snapshot: missing, stale or below threshold.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the persisted snapshot is corrupted or unreadable.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Backend is raw key/value storage for snapshot keys.
type Backend interface {
	// Name labels metrics and logs ("redis", "sqlite", "memory").
	Name() string

	// Get returns the values of the keys that exist. Missing keys are absent from the map.
	Get(ctx context.Context, keys []string) (map[string][]byte, error)

	// Set writes all values atomically. ttl <= 0 means no expiry.
	Set(ctx context.Context, values map[string][]byte, ttl time.Duration) error

	// Delete removes the keys. Missing keys are not an error.
	Delete(ctx context.Context, keys []string) error
}

// Store is the snapshot contract the pipeline depends on.
type Store interface {
	Load(ctx context.Context) (*Entry, error)
	Save(ctx context.Context, teams []roster.Team, players []roster.PlayerRecord) error
	Clear(ctx context.Context) error
}

// Config holds snapshot policy.
type Config struct {
	Namespace  string
	MaxAge     time.Duration
	MinPlayers int

	// Now is the clock used for timestamps and freshness (default: time.Now).
	Now func() time.Time
}

// DefaultConfig returns the 24h / 1000 player policy under the "mlb" namespace.
func DefaultConfig() Config {
	return Config{
		Namespace:  "mlb",
		MaxAge:     DefaultMaxAge,
		MinPlayers: DefaultMinPlayers,
		Now:        time.Now,
	}
}

// Manager implements Store on top of a Backend.
type Manager struct {
	backend Backend
	keys    Keys
	config  Config
	logger  zerolog.Logger
}

var _ Store = (*Manager)(nil)

// NewManager creates a snapshot manager.
func NewManager(backend Backend, cfg Config) *Manager {
	if backend == nil {
		panic("cache backend cannot be nil")
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.MinPlayers < 0 {
		cfg.MinPlayers = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		backend: backend,
		keys:    Keys{Namespace: cfg.Namespace},
		config:  cfg,
		logger:  log.With().Str("component", "roster-cache").Str("backend", backend.Name()).Logger(),
	}
}

// Load restores the persisted snapshot.
// Returns ErrCacheMiss if it is missing, stale or below the viability threshold,
// and an error wrapping ErrInvalidEntry if it cannot be decoded.
func (m *Manager) Load(ctx context.Context) (*Entry, error) {
	values, err := m.backend.Get(ctx, m.keys.All())
	if err != nil {
		CacheErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("%s get: %w", m.backend.Name(), err)
	}

	if len(values) == 0 {
		CacheMisses.WithLabelValues("missing").Inc()
		return nil, ErrCacheMiss
	}

	entry, err := m.decode(values)
	if err != nil {
		CacheMisses.WithLabelValues("invalid").Inc()
		return nil, err
	}

	now := m.config.Now()
	if entry.IsStale(now, m.config.MaxAge) {
		m.logger.Debug().Dur("age", entry.Age(now)).Msg("Snapshot is stale")
		CacheMisses.WithLabelValues("stale").Inc()
		return nil, ErrCacheMiss
	}
	if !entry.IsViable(m.config.MinPlayers) {
		m.logger.Debug().
			Int("players", len(entry.Players)).
			Int("min_players", m.config.MinPlayers).
			Msg("Snapshot below viability threshold")
		CacheMisses.WithLabelValues("below_threshold").Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(m.backend.Name()).Inc()
	return entry, nil
}

// Save persists the snapshot stamped with the current time, overwriting any
// prior entry. Nothing is written unless both teams and players are non-empty.
func (m *Manager) Save(ctx context.Context, teams []roster.Team, players []roster.PlayerRecord) error {
	if len(teams) == 0 || len(players) == 0 {
		return nil
	}

	playersJSON, err := json.Marshal(players)
	if err != nil {
		CacheErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("marshal players: %w", err)
	}
	teamsJSON, err := json.Marshal(teams)
	if err != nil {
		CacheErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("marshal teams: %w", err)
	}
	ts := strconv.FormatInt(m.config.Now().UnixMilli(), 10)

	values := map[string][]byte{
		m.keys.Players():   playersJSON,
		m.keys.Teams():     teamsJSON,
		m.keys.Timestamp(): []byte(ts),
	}
	if err := m.backend.Set(ctx, values, m.config.MaxAge); err != nil {
		CacheErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("%s set: %w", m.backend.Name(), err)
	}

	CacheSize.WithLabelValues(m.backend.Name()).Set(float64(len(playersJSON) + len(teamsJSON) + len(ts)))
	m.logger.Debug().
		Int("players", len(players)).
		Int("teams", len(teams)).
		Msg("Snapshot saved")
	return nil
}

// Clear removes the persisted snapshot.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.backend.Delete(ctx, m.keys.All()); err != nil {
		CacheErrors.WithLabelValues("clear").Inc()
		return fmt.Errorf("%s delete: %w", m.backend.Name(), err)
	}
	return nil
}

func (m *Manager) decode(values map[string][]byte) (*Entry, error) {
	playersJSON, okPlayers := values[m.keys.Players()]
	teamsJSON, okTeams := values[m.keys.Teams()]
	tsRaw, okTS := values[m.keys.Timestamp()]
	if !okPlayers || !okTeams || !okTS {
		return nil, fmt.Errorf("%w: partial snapshot (players=%t teams=%t timestamp=%t)",
			ErrInvalidEntry, okPlayers, okTeams, okTS)
	}

	var entry Entry
	if err := json.Unmarshal(playersJSON, &entry.Players); err != nil {
		return nil, fmt.Errorf("%w: players: %v", ErrInvalidEntry, err)
	}
	if err := json.Unmarshal(teamsJSON, &entry.Teams); err != nil {
		return nil, fmt.Errorf("%w: teams: %v", ErrInvalidEntry, err)
	}
	millis, err := strconv.ParseInt(string(tsRaw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidEntry, err)
	}
	entry.SavedAt = time.UnixMilli(millis)

	return &entry, nil
}
