package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/mlb-roster-client/pkg/client"
	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

// TeamsData is the payload of GET /teams.
type TeamsData struct {
	Teams []roster.Team `json:"teams"`
}

// RosterData is the payload of GET /teams/{teamId}/roster/{season}.
type RosterData struct {
	TeamID int                  `json:"teamId"`
	Season int                  `json:"season,omitempty"`
	Roster []roster.RosterEntry `json:"roster"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps data in a success envelope.
func writeData(w http.ResponseWriter, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode response", nil)
		return
	}
	writeJSON(w, http.StatusOK, client.Envelope{Success: true, Data: raw})
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, message string, details any) {
	writeJSON(w, status, client.Envelope{
		Success: false,
		Error:   &client.EnvelopeError{Message: message, Details: details},
	})
}

// writeUpstreamError maps a failed source call onto an error envelope. The
// upstream status is relayed when known, anything else is a 500.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	status := client.StatusOf(err)
	message := "Internal Server Error"
	var details any
	if status >= http.StatusBadRequest {
		message = "MLB API Error"
		details = err.Error()
	} else {
		status = http.StatusInternalServerError
	}

	s.logger.Error().
		Err(err).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Upstream request failed")
	writeError(w, status, message, details)
}

// handleGetTeams returns the team directory.
func (s *Server) handleGetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.source.Teams(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if len(teams) == 0 {
		writeError(w, http.StatusNotFound, "No teams data available", nil)
		return
	}
	writeData(w, TeamsData{Teams: teams})
}

// handleGetTeamRosters fetches the rosters of ?teamIds=a,b,c in parallel.
// Any failed roster fails the whole request.
func (s *Server) handleGetTeamRosters(w http.ResponseWriter, r *http.Request) {
	ids, err := parseTeamIDs(r.URL.Query().Get("teamIds"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	results := make([]roster.TeamRoster, len(ids))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.config.MaxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			entries, err := s.source.Roster(ctx, id, 0)
			if err != nil {
				return err
			}
			results[i] = roster.TeamRoster{TeamID: id, Roster: entries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}

	writeData(w, results)
}

// handleGetTeamRoster returns one team's roster. A missing or zero season
// selects the current one.
func (s *Server) handleGetTeamRoster(w http.ResponseWriter, r *http.Request) {
	teamID, season, entries, ok := s.fetchRoster(w, r)
	if !ok {
		return
	}
	writeData(w, RosterData{TeamID: teamID, Season: season, Roster: entries})
}

// rosterGroup serves a filtered view of one team's roster.
func (s *Server) rosterGroup(filter func([]roster.RosterEntry) []roster.RosterEntry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, entries, ok := s.fetchRoster(w, r)
		if !ok {
			return
		}
		writeData(w, filter(entries))
	}
}

// fetchRoster parses the path and loads the roster, writing the error
// response itself when it returns false.
func (s *Server) fetchRoster(w http.ResponseWriter, r *http.Request) (int, int, []roster.RosterEntry, bool) {
	teamID, err := parseTeamID(chi.URLParam(r, "teamId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return 0, 0, nil, false
	}
	season, err := parseSeason(chi.URLParam(r, "season"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return 0, 0, nil, false
	}

	entries, err := s.source.Roster(r.Context(), teamID, season)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return 0, 0, nil, false
	}
	if len(entries) == 0 {
		writeError(w, http.StatusNotFound, "No roster found for this team", nil)
		return 0, 0, nil, false
	}
	return teamID, season, entries, true
}

func parseTeamID(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid team id %q", raw)
	}
	return id, nil
}

// parseSeason accepts an empty value or 0 as "current season".
func parseSeason(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	season, err := strconv.Atoi(raw)
	if err != nil || season < 0 {
		return 0, fmt.Errorf("invalid season %q", raw)
	}
	return season, nil
}

func parseTeamIDs(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("teamIds query parameter is required")
	}
	parts := strings.Split(raw, ",")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := parseTeamID(p)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
