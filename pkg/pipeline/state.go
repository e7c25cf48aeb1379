package pipeline

import (
	"github.com/Sternrassler/mlb-roster-client/pkg/cache"
	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

// Phase is the progression state of the pipeline.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingDirectory
	PhaseLoadingBatch
	PhaseComplete
	PhaseError
)

var phaseNames = [...]string{"idle", "loading_directory", "loading_batch", "complete", "error"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Settled reports whether the pipeline stopped progressing on its own.
func (p Phase) Settled() bool {
	return p == PhaseComplete || p == PhaseError
}

// State is everything Transition needs. The aggregate set itself lives in the
// controller because merging is randomized.
type State struct {
	Phase      Phase
	Generation uint64
	Teams      []roster.Team
	Cursor     int
	InFlight   bool
	Err        error
}

// Event is an input to Transition.
type Event interface{ event() }

// Start begins a session. Cached is the fresh snapshot, or nil.
type Start struct {
	Cached *cache.Entry
}

// DirectoryLoaded carries the team directory of generation Gen.
type DirectoryLoaded struct {
	Gen   uint64
	Teams []roster.Team
}

// DirectoryFailed reports a failed directory load of generation Gen.
type DirectoryFailed struct {
	Gen uint64
	Err error
}

// BatchFetched carries the players of the batch that started at From.
type BatchFetched struct {
	Gen        uint64
	From       int
	NextCursor int
	Players    []roster.PlayerRecord
	Failed     int
}

// BatchAborted reports a batch that could not run at all (cancellation).
type BatchAborted struct {
	Gen  uint64
	From int
	Err  error
}

// Refresh discards everything and reloads from the upstream.
type Refresh struct{}

func (Start) event()           {}
func (DirectoryLoaded) event() {}
func (DirectoryFailed) event() {}
func (BatchFetched) event()    {}
func (BatchAborted) event()    {}
func (Refresh) event()         {}

// Effect is a side effect requested by Transition, executed in order.
type Effect interface{ effect() }

// LoadDirectory fetches the team directory for generation Gen.
type LoadDirectory struct {
	Gen uint64
}

// FetchBatch fetches the batch starting at Cursor for generation Gen.
type FetchBatch struct {
	Gen    uint64
	Teams  []roster.Team
	Cursor int
}

// Merge folds players into the aggregate set.
type Merge struct {
	Players []roster.PlayerRecord
}

// Persist saves the directory and aggregate set.
type Persist struct{}

// ClearCache removes the persisted snapshot.
type ClearCache struct{}

// Reset empties the aggregate set.
type Reset struct{}

// Restore replaces the aggregate set with a cached one.
type Restore struct {
	Players []roster.PlayerRecord
}

func (LoadDirectory) effect() {}
func (FetchBatch) effect()    {}
func (Merge) effect()         {}
func (Persist) effect()       {}
func (ClearCache) effect()    {}
func (Reset) effect()         {}
func (Restore) effect()       {}

// Transition is the pure progression function. Results tagged with another
// generation, or arriving in a phase that does not expect them, are dropped
// by returning s unchanged and no effects.
func Transition(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Start:
		if s.Phase != PhaseIdle {
			return s, nil
		}
		if e.Cached != nil {
			s.Phase = PhaseComplete
			s.Teams = e.Cached.Teams
			s.Cursor = len(e.Cached.Teams)
			return s, []Effect{Restore{Players: e.Cached.Players}}
		}
		s.Phase = PhaseLoadingDirectory
		return s, []Effect{LoadDirectory{Gen: s.Generation}}

	case DirectoryLoaded:
		if e.Gen != s.Generation || s.Phase != PhaseLoadingDirectory {
			return s, nil
		}
		s.Teams = e.Teams
		s.Cursor = 0
		if len(e.Teams) == 0 {
			s.Phase = PhaseComplete
			return s, nil
		}
		s.Phase = PhaseLoadingBatch
		s.InFlight = true
		return s, []Effect{FetchBatch{Gen: s.Generation, Teams: s.Teams, Cursor: 0}}

	case DirectoryFailed:
		if e.Gen != s.Generation || s.Phase != PhaseLoadingDirectory {
			return s, nil
		}
		s.Phase = PhaseError
		s.Err = e.Err
		return s, nil

	case BatchFetched:
		if e.Gen != s.Generation || s.Phase != PhaseLoadingBatch || !s.InFlight || e.From != s.Cursor {
			return s, nil
		}
		s.InFlight = false
		if e.NextCursor > s.Cursor {
			s.Cursor = min(e.NextCursor, len(s.Teams))
		}
		effects := []Effect{Merge{Players: e.Players}, Persist{}}
		if s.Cursor >= len(s.Teams) {
			s.Phase = PhaseComplete
			return s, effects
		}
		s.InFlight = true
		return s, append(effects, FetchBatch{Gen: s.Generation, Teams: s.Teams, Cursor: s.Cursor})

	case BatchAborted:
		if e.Gen != s.Generation || s.Phase != PhaseLoadingBatch || e.From != s.Cursor {
			return s, nil
		}
		s.InFlight = false
		s.Phase = PhaseError
		s.Err = e.Err
		return s, nil

	case Refresh:
		return State{
			Phase:      PhaseLoadingDirectory,
			Generation: s.Generation + 1,
		}, []Effect{ClearCache{}, Reset{}, LoadDirectory{Gen: s.Generation + 1}}
	}

	return s, nil
}
