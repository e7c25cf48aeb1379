package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

// DefaultStatsAPIURL is the public statistics provider.
const DefaultStatsAPIURL = "https://statsapi.mlb.com/api/v1"

// mlbSportID selects major league teams.
const mlbSportID = 1

// StatsAPI reads teams and rosters straight from the statistics provider.
type StatsAPI struct {
	client *Client
	season int
	now    func() time.Time
}

var _ roster.Source = (*StatsAPI)(nil)

// NewStatsAPI creates a provider source. season <= 0 means the current year.
func NewStatsAPI(c *Client, season int) *StatsAPI {
	return &StatsAPI{client: c, season: season, now: time.Now}
}

// Season returns the configured season, or the current year.
func (s *StatsAPI) Season() int {
	if s.season > 0 {
		return s.season
	}
	return s.now().Year()
}

type statsNamed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type statsTeam struct {
	ID           int         `json:"id"`
	Name         string      `json:"name"`
	LocationName string      `json:"locationName"`
	Sport        statsNamed  `json:"sport"`
	League       *statsNamed `json:"league"`
	Division     *statsNamed `json:"division"`
	Venue        *statsNamed `json:"venue"`
}

func (t statsTeam) toTeam() roster.Team {
	team := roster.Team{
		ID:       t.ID,
		Name:     t.Name,
		League:   "Unknown League",
		Division: "Unknown Division",
		Venue:    t.LocationName,
	}
	if t.League != nil && t.League.Name != "" {
		team.League = t.League.Name
	}
	if t.Division != nil && t.Division.Name != "" {
		team.Division = t.Division.Name
	}
	if t.Venue != nil && t.Venue.Name != "" {
		team.Venue = t.Venue.Name
	}
	return team
}

// Teams returns the major league teams of the season.
func (s *StatsAPI) Teams(ctx context.Context) ([]roster.Team, error) {
	query := url.Values{}
	query.Set("sportId", strconv.Itoa(mlbSportID))
	query.Set("season", strconv.Itoa(s.Season()))

	var body struct {
		Teams *[]statsTeam `json:"teams"`
	}
	if err := s.client.getJSON(ctx, "teams", "/teams", query, &body); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}
	if body.Teams == nil {
		return nil, fmt.Errorf("fetch teams: invalid response: missing teams")
	}

	teams := make([]roster.Team, 0, len(*body.Teams))
	for _, t := range *body.Teams {
		if t.Sport.ID != mlbSportID {
			continue
		}
		teams = append(teams, t.toTeam())
	}
	return teams, nil
}

// Roster returns the active roster of a team. season <= 0 uses Season().
func (s *StatsAPI) Roster(ctx context.Context, teamID, season int) ([]roster.RosterEntry, error) {
	if season <= 0 {
		season = s.Season()
	}
	query := url.Values{}
	query.Set("season", strconv.Itoa(season))
	query.Set("rosterType", "Active")

	var body struct {
		Roster []roster.RosterEntry `json:"roster"`
	}
	path := fmt.Sprintf("/teams/%d/roster", teamID)
	if err := s.client.getJSON(ctx, "team_roster", path, query, &body); err != nil {
		return nil, fmt.Errorf("fetch roster for team %d: %w", teamID, err)
	}
	if body.Roster == nil {
		return []roster.RosterEntry{}, nil
	}
	return body.Roster, nil
}
