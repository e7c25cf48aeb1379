package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves rosters from memory and records concurrency.
type fakeSource struct {
	rosters map[int][]roster.RosterEntry
	fail    map[int]error
	delay   time.Duration

	mu       sync.Mutex
	seasons  []int
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *fakeSource) Teams(context.Context) ([]roster.Team, error) {
	return nil, errors.New("not used")
}

func (s *fakeSource) Roster(ctx context.Context, teamID, season int) ([]roster.RosterEntry, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	s.mu.Lock()
	s.seasons = append(s.seasons, season)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := s.fail[teamID]; err != nil {
		return nil, err
	}
	return s.rosters[teamID], nil
}

func entry(id int, name string) roster.RosterEntry {
	return roster.RosterEntry{
		Person:   roster.Person{ID: id, FullName: name},
		Position: roster.Position{Type: "Pitcher", Abbreviation: "P"},
		Status:   roster.Status{Code: "A"},
	}
}

func makeTeams(n int) []roster.Team {
	teams := make([]roster.Team, n)
	for i := range teams {
		teams[i] = roster.Team{ID: i + 1, Name: string(rune('A' + i))}
	}
	return teams
}

func TestFetchBatch_TwoTeamsOneAtATime(t *testing.T) {
	teams := makeTeams(2)
	source := &fakeSource{rosters: map[int][]roster.RosterEntry{
		1: {entry(100, "A One"), entry(101, "A Two")},
		2: {entry(200, "B One")},
	}}
	fetcher := NewFetcher(source, DefaultConfig())
	ctx := context.Background()

	first, err := fetcher.FetchBatch(ctx, teams, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.NextCursor)
	require.Len(t, first.Players, 2)
	for _, p := range first.Players {
		assert.Equal(t, 1, p.Team.ID)
	}

	second, err := fetcher.FetchBatch(ctx, teams, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, second.NextCursor)
	require.Len(t, second.Players, 1)
	assert.Equal(t, "B", second.Players[0].Team.Name)
	assert.Equal(t, 200, second.Players[0].Person.ID)
}

func TestFetchBatch_OneOfFiveFails(t *testing.T) {
	teams := makeTeams(5)
	source := &fakeSource{
		rosters: map[int][]roster.RosterEntry{},
		fail:    map[int]error{3: errors.New("upstream 500")},
	}
	for _, team := range teams {
		source.rosters[team.ID] = []roster.RosterEntry{entry(team.ID*10, team.Name)}
	}

	b, err := NewFetcher(source, DefaultConfig()).FetchBatch(context.Background(), teams, 0, 10)
	require.NoError(t, err)

	assert.Equal(t, 5, b.NextCursor)
	assert.Len(t, b.Players, 4)
	require.Len(t, b.Failed, 1)
	assert.Equal(t, 3, b.Failed[0].TeamID)
	assert.EqualError(t, b.Failed[0], "roster for team 3: upstream 500")

	// directory order is kept for the teams that answered
	got := []int{}
	for _, p := range b.Players {
		got = append(got, p.Team.ID)
	}
	assert.Equal(t, []int{1, 2, 4, 5}, got)
}

func TestFetchBatch_SliceBounds(t *testing.T) {
	teams := makeTeams(25)
	source := &fakeSource{rosters: map[int][]roster.RosterEntry{}}
	for _, team := range teams {
		source.rosters[team.ID] = []roster.RosterEntry{entry(team.ID, team.Name)}
	}
	fetcher := NewFetcher(source, DefaultConfig())

	tests := []struct {
		name       string
		cursor     int
		batchSize  int
		wantNext   int
		wantPlayer int
	}{
		{name: "first batch", cursor: 0, batchSize: 10, wantNext: 10, wantPlayer: 10},
		{name: "last partial batch", cursor: 20, batchSize: 10, wantNext: 25, wantPlayer: 5},
		{name: "cursor at end", cursor: 25, batchSize: 10, wantNext: 25, wantPlayer: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := fetcher.FetchBatch(context.Background(), teams, tt.cursor, tt.batchSize)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNext, b.NextCursor)
			assert.Len(t, b.Players, tt.wantPlayer)
		})
	}
}

func TestFetchBatch_InvalidArguments(t *testing.T) {
	fetcher := NewFetcher(&fakeSource{}, DefaultConfig())
	teams := makeTeams(3)

	_, err := fetcher.FetchBatch(context.Background(), teams, 0, 0)
	assert.Error(t, err)

	_, err = fetcher.FetchBatch(context.Background(), teams, -1, 5)
	assert.Error(t, err)

	_, err = fetcher.FetchBatch(context.Background(), teams, 4, 5)
	assert.Error(t, err)
}

func TestFetchBatch_Idempotent(t *testing.T) {
	teams := makeTeams(3)
	source := &fakeSource{rosters: map[int][]roster.RosterEntry{
		1: {entry(1, "x")}, 2: {entry(2, "y")}, 3: {entry(3, "z")},
	}}
	fetcher := NewFetcher(source, DefaultConfig())

	a, err := fetcher.FetchBatch(context.Background(), teams, 1, 2)
	require.NoError(t, err)
	b, err := fetcher.FetchBatch(context.Background(), teams, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFetchBatch_RespectsMaxConcurrency(t *testing.T) {
	teams := makeTeams(12)
	source := &fakeSource{rosters: map[int][]roster.RosterEntry{}, delay: 20 * time.Millisecond}

	_, err := NewFetcher(source, Config{MaxConcurrency: 3, Timeout: time.Second}).
		FetchBatch(context.Background(), teams, 0, 12)
	require.NoError(t, err)

	assert.LessOrEqual(t, source.peak.Load(), int32(3))
	assert.Len(t, source.seasons, 12)
}

func TestFetchBatch_PassesSeason(t *testing.T) {
	source := &fakeSource{rosters: map[int][]roster.RosterEntry{}}
	cfg := DefaultConfig()
	cfg.Season = 2023

	_, err := NewFetcher(source, cfg).FetchBatch(context.Background(), makeTeams(2), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2023, 2023}, source.seasons)
}

func TestFetchBatch_TimeoutSkipsTeam(t *testing.T) {
	source := &fakeSource{rosters: map[int][]roster.RosterEntry{}, delay: time.Second}

	b, err := NewFetcher(source, Config{MaxConcurrency: 2, Timeout: 10 * time.Millisecond}).
		FetchBatch(context.Background(), makeTeams(2), 0, 2)
	require.NoError(t, err)

	assert.Empty(t, b.Players)
	require.Len(t, b.Failed, 2)
	assert.ErrorIs(t, b.Failed[0], context.DeadlineExceeded)
}

func TestFetchBatch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(&fakeSource{delay: time.Second}, DefaultConfig()).
		FetchBatch(ctx, makeTeams(2), 0, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
