package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

// Backend reads teams and rosters through the relay backend, unwrapping its
// {success, data} envelope.
type Backend struct {
	client *Client
	season int
}

var _ roster.Source = (*Backend)(nil)

// NewBackend creates a relay source. season <= 0 lets the backend pick the
// current season.
func NewBackend(c *Client, season int) *Backend {
	return &Backend{client: c, season: season}
}

// getEnvelope fetches a relay route and decodes its data into out. Error
// envelopes are decoded even when the status is not 2xx.
func (b *Backend) getEnvelope(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	target := b.client.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := b.client.Do(req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env Envelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&env); decodeErr != nil {
		if resp.StatusCode >= 300 {
			return &UpstreamError{
				StatusCode: resp.StatusCode,
				ErrorClass: b.client.classifyError(resp, nil),
				Endpoint:   endpoint,
				Message:    resp.Status,
			}
		}
		return fmt.Errorf("decode %s envelope: %w", endpoint, decodeErr)
	}

	if err := env.decode(endpoint, out); err != nil {
		if resp.StatusCode >= 300 {
			return &UpstreamError{
				StatusCode: resp.StatusCode,
				ErrorClass: b.client.classifyError(resp, nil),
				Endpoint:   endpoint,
				Message:    resp.Status,
				Err:        err,
			}
		}
		return err
	}
	return nil
}

// Teams returns the team directory.
func (b *Backend) Teams(ctx context.Context) ([]roster.Team, error) {
	var data struct {
		Teams []roster.Team `json:"teams"`
	}
	if err := b.getEnvelope(ctx, "teams", "/teams", nil, &data); err != nil {
		return nil, fmt.Errorf("fetch teams: %w", err)
	}
	return data.Teams, nil
}

// Roster returns one team's roster.
func (b *Backend) Roster(ctx context.Context, teamID, season int) ([]roster.RosterEntry, error) {
	if season <= 0 {
		season = b.season
	}
	// 0 asks the backend for its current season
	path := fmt.Sprintf("/teams/%d/roster/%d", teamID, season)

	var data struct {
		Roster []roster.RosterEntry `json:"roster"`
	}
	if err := b.getEnvelope(ctx, "team_roster", path, nil, &data); err != nil {
		return nil, fmt.Errorf("fetch roster for team %d: %w", teamID, err)
	}
	if data.Roster == nil {
		return []roster.RosterEntry{}, nil
	}
	return data.Roster, nil
}

// Rosters fetches several rosters in one relay call.
func (b *Backend) Rosters(ctx context.Context, teamIDs []int) ([]roster.TeamRoster, error) {
	if len(teamIDs) == 0 {
		return []roster.TeamRoster{}, nil
	}
	ids := make([]string, len(teamIDs))
	for i, id := range teamIDs {
		ids[i] = strconv.Itoa(id)
	}
	query := url.Values{}
	query.Set("teamIds", strings.Join(ids, ","))

	var data []roster.TeamRoster
	if err := b.getEnvelope(ctx, "team_rosters", "/teams/rosters", query, &data); err != nil {
		return nil, fmt.Errorf("fetch rosters: %w", err)
	}
	return data, nil
}
