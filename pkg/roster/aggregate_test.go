package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func player(id int, name string, team Team) PlayerRecord {
	return PlayerRecord{
		Person:   Person{ID: id, FullName: name},
		Position: Position{Type: "Outfielder", Abbreviation: "CF"},
		Status:   Status{Code: "A"},
		Team:     team,
	}
}

func ids(records []PlayerRecord) map[int]int {
	out := make(map[int]int, len(records))
	for _, r := range records {
		out[r.Person.ID]++
	}
	return out
}

func TestMerge_DedupFirstSeenWins(t *testing.T) {
	a := Team{ID: 1, Name: "Alpha"}
	b := Team{ID: 2, Name: "Bravo"}
	m := NewSeededMerger(42, ShuffleAll)

	existing := m.Merge(nil, []PlayerRecord{player(10, "Ten", a), player(11, "Eleven", a)})
	merged := m.Merge(existing, []PlayerRecord{player(11, "Eleven Again", b), player(12, "Twelve", b)})

	require.Len(t, merged, 3)
	for _, p := range merged {
		if p.Person.ID == 11 {
			assert.Equal(t, "Eleven", p.Person.FullName)
			assert.Equal(t, a.ID, p.Team.ID)
		}
	}
}

func TestMerge_Idempotent(t *testing.T) {
	team := Team{ID: 1, Name: "Alpha"}
	batch := []PlayerRecord{player(1, "A", team), player(2, "B", team), player(3, "C", team)}
	m := NewSeededMerger(7, ShuffleAll)

	once := m.Merge(nil, batch)
	twice := m.Merge(once, batch)

	assert.Len(t, twice, len(once))
	for id, n := range ids(twice) {
		assert.Equalf(t, 1, n, "person %d appears %d times", id, n)
	}
}

func TestMerge_DedupWithinIncoming(t *testing.T) {
	team := Team{ID: 1}
	m := NewSeededMerger(1, ShuffleAll)

	merged := m.Merge(nil, []PlayerRecord{player(5, "first", team), player(5, "second", team)})

	require.Len(t, merged, 1)
	assert.Equal(t, "first", merged[0].Person.FullName)
}

func TestMerge_DoesNotMutateExisting(t *testing.T) {
	team := Team{ID: 1}
	existing := []PlayerRecord{player(1, "A", team), player(2, "B", team), player(3, "C", team)}
	snapshot := append([]PlayerRecord(nil), existing...)

	NewSeededMerger(3, ShuffleAll).Merge(existing, []PlayerRecord{player(4, "D", team)})

	assert.Equal(t, snapshot, existing)
}

func TestMerge_SeededIsDeterministic(t *testing.T) {
	team := Team{ID: 1}
	batch := make([]PlayerRecord, 0, 50)
	for i := range 50 {
		batch = append(batch, player(i, "p", team))
	}

	first := NewSeededMerger(99, ShuffleAll).Merge(nil, batch)
	second := NewSeededMerger(99, ShuffleAll).Merge(nil, batch)

	assert.Equal(t, first, second)
}

func TestMerge_ShuffleIncomingKeepsExistingPrefix(t *testing.T) {
	team := Team{ID: 1}
	m := NewSeededMerger(5, ShuffleIncoming)

	existing := m.Merge(nil, []PlayerRecord{player(1, "A", team), player(2, "B", team), player(3, "C", team)})
	merged := m.Merge(existing, []PlayerRecord{player(4, "D", team), player(5, "E", team)})

	require.Len(t, merged, 5)
	assert.Equal(t, existing, merged[:3])
	assert.ElementsMatch(t, []int{4, 5}, []int{merged[3].Person.ID, merged[4].Person.ID})
}

func TestParseShuffleMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ShuffleMode
		wantErr bool
	}{
		{in: "", want: ShuffleAll},
		{in: "all", want: ShuffleAll},
		{in: "incoming", want: ShuffleIncoming},
		{in: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseShuffleMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlatten(t *testing.T) {
	team := Team{ID: 147, Name: "New York Yankees"}
	entries := []RosterEntry{
		{Person: Person{ID: 1, FullName: "One"}, JerseyNumber: "99", Position: Position{Abbreviation: "RF"}},
		{Person: Person{ID: 2, FullName: "Two"}, Position: Position{Abbreviation: "P", Type: "Pitcher"}},
	}

	records := Flatten(team, entries)

	require.Len(t, records, 2)
	assert.Equal(t, team, records[0].Team)
	assert.Equal(t, "99", records[0].JerseyNumber)
	assert.Empty(t, records[1].JerseyNumber)
	assert.Equal(t, "Pitcher", records[1].Position.Type)
}
