// Package roster holds the player/team data model and the pure operations over it:
// merging roster batches into the aggregate set and projecting filtered pages.
package roster

import "context"

// Team is one entry of the team directory.
// Teams are immutable once fetched for a session.
type Team struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	League   string `json:"league"`
	Division string `json:"division"`
	Venue    string `json:"venue,omitempty"`
}

// Person identifies a player.
type Person struct {
	ID       int    `json:"id"`
	FullName string `json:"fullName"`
}

// Position describes a roster slot (e.g. type "Pitcher", abbreviation "P").
type Position struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Abbreviation string `json:"abbreviation"`
}

// Status is the roster status of a player (code "A" means active).
type Status struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// RosterEntry is one line of a team roster as returned by the statistics provider.
type RosterEntry struct {
	Person       Person   `json:"person"`
	JerseyNumber string   `json:"jerseyNumber,omitempty"`
	Position     Position `json:"position"`
	Status       Status   `json:"status"`
}

// PlayerRecord is a roster entry tagged with the team it was fetched for.
// Records are never mutated after creation.
type PlayerRecord struct {
	Person       Person   `json:"person"`
	Position     Position `json:"position"`
	JerseyNumber string   `json:"jerseyNumber,omitempty"`
	Status       Status   `json:"status"`

	// Team is a back-reference for display and filtering only.
	Team Team `json:"teamInfo"`
}

// TeamRoster pairs a team identifier with its roster (batch variant of the roster query).
type TeamRoster struct {
	TeamID int           `json:"teamId"`
	Roster []RosterEntry `json:"roster"`
}

// Source is the upstream collaborator: a team directory and per-team rosters.
// Both the statistics provider and the relay backend implement it.
type Source interface {
	Teams(ctx context.Context) ([]Team, error)
	Roster(ctx context.Context, teamID, season int) ([]RosterEntry, error)
}

// Flatten converts a team's roster into player records tagged with that team.
func Flatten(team Team, entries []RosterEntry) []PlayerRecord {
	records := make([]PlayerRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, PlayerRecord{
			Person:       e.Person,
			Position:     e.Position,
			JerseyNumber: e.JerseyNumber,
			Status:       e.Status,
			Team:         team,
		})
	}
	return records
}
