package cache

import (
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

const (
	// DefaultMaxAge is the freshness window of a persisted snapshot.
	DefaultMaxAge = 24 * time.Hour

	// DefaultMinPlayers is the viability threshold below which a snapshot is ignored.
	DefaultMinPlayers = 1000
)

// Entry is a persisted snapshot of the directory and aggregate set.
type Entry struct {
	Teams   []roster.Team
	Players []roster.PlayerRecord
	SavedAt time.Time
}

// Age returns how long ago the entry was saved.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.SavedAt)
}

// IsStale reports whether the entry is at or beyond maxAge.
// An entry exactly maxAge old is stale.
func (e *Entry) IsStale(now time.Time, maxAge time.Duration) bool {
	return e.Age(now) >= maxAge
}

// IsViable reports whether the entry holds enough players to be trusted.
func (e *Entry) IsViable(minPlayers int) bool {
	return len(e.Players) >= minPlayers
}
