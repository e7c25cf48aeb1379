package roster

import (
	"fmt"
	"math/rand/v2"
)

// ShuffleMode controls how a merge permutes the aggregate set.
type ShuffleMode string

const (
	// ShuffleAll permutes the whole set on every merge. Previously paged
	// results move while background batches are still arriving.
	ShuffleAll ShuffleMode = "all"

	// ShuffleIncoming keeps the existing order and only permutes the newly
	// admitted records before appending them.
	ShuffleIncoming ShuffleMode = "incoming"
)

// ParseShuffleMode validates a configured shuffle mode. Empty means ShuffleAll.
func ParseShuffleMode(s string) (ShuffleMode, error) {
	switch ShuffleMode(s) {
	case "", ShuffleAll:
		return ShuffleAll, nil
	case ShuffleIncoming:
		return ShuffleIncoming, nil
	default:
		return "", fmt.Errorf("unknown shuffle mode %q", s)
	}
}

// Merger merges roster batches into an aggregate set.
// A Merger is not safe for concurrent use; the pipeline calls it from a single goroutine.
type Merger struct {
	rng  *rand.Rand
	mode ShuffleMode
}

// NewMerger creates a merger. A nil rng falls back to an unseeded PCG source.
func NewMerger(rng *rand.Rand, mode ShuffleMode) *Merger {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if mode == "" {
		mode = ShuffleAll
	}
	return &Merger{rng: rng, mode: mode}
}

// NewSeededMerger creates a merger with a deterministic permutation sequence.
func NewSeededMerger(seed uint64, mode ShuffleMode) *Merger {
	return NewMerger(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), mode)
}

// Merge returns a new aggregate containing existing plus every incoming record
// whose person identifier is not already present (first seen wins), permuted
// according to the merger's shuffle mode. existing is never modified.
func (m *Merger) Merge(existing, incoming []PlayerRecord) []PlayerRecord {
	seen := make(map[int]struct{}, len(existing)+len(incoming))
	for _, p := range existing {
		seen[p.Person.ID] = struct{}{}
	}

	admitted := make([]PlayerRecord, 0, len(incoming))
	for _, p := range incoming {
		if _, dup := seen[p.Person.ID]; dup {
			continue
		}
		// Also dedups within the incoming batch itself.
		seen[p.Person.ID] = struct{}{}
		admitted = append(admitted, p)
	}

	merged := make([]PlayerRecord, 0, len(existing)+len(admitted))
	merged = append(merged, existing...)

	switch m.mode {
	case ShuffleIncoming:
		m.shuffle(admitted)
		merged = append(merged, admitted...)
	default:
		merged = append(merged, admitted...)
		m.shuffle(merged)
	}
	return merged
}

// shuffle is an in-place Fisher-Yates permutation.
func (m *Merger) shuffle(records []PlayerRecord) {
	m.rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}
