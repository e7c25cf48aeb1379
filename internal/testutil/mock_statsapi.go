// Package testutil provides testing utilities for the roster client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/mlb-roster-client/pkg/roster"
)

// MockResponse defines a canned response for a mock endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockStatsAPI is a configurable mock of the statistics provider. It serves
// GET /teams and GET /teams/{id}/roster from the teams and rosters added to it.
type MockStatsAPI struct {
	server *httptest.Server

	mu        sync.RWMutex
	teams     []roster.Team
	rosters   map[int][]roster.RosterEntry
	failures  map[int]MockResponse
	overrides map[string]MockResponse
	delay     time.Duration

	requests    map[string]int
	lastHeaders http.Header
	lastQuery   map[string]string
}

// NewMockStatsAPI creates and starts a mock provider.
func NewMockStatsAPI() *MockStatsAPI {
	mock := &MockStatsAPI{
		rosters:   make(map[int][]roster.RosterEntry),
		failures:  make(map[int]MockResponse),
		overrides: make(map[string]MockResponse),
		requests:  make(map[string]int),
		lastQuery: make(map[string]string),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server URL.
func (m *MockStatsAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockStatsAPI) Close() {
	m.server.Close()
}

// AddTeam registers a team and its active roster.
func (m *MockStatsAPI) AddTeam(team roster.Team, entries ...roster.RosterEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams = append(m.teams, team)
	m.rosters[team.ID] = entries
}

// FailRoster makes the roster endpoint of a team answer with resp.
func (m *MockStatsAPI) FailRoster(teamID int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[teamID] = resp
}

// SetResponse overrides any path with a canned response.
func (m *MockStatsAPI) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[path] = resp
}

// SetDelay delays every response.
func (m *MockStatsAPI) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// RequestCount returns the number of requests made to path ("" counts all).
func (m *MockStatsAPI) RequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if path != "" {
		return m.requests[path]
	}
	total := 0
	for _, n := range m.requests {
		total += n
	}
	return total
}

// LastHeaders returns the headers of the most recent request.
func (m *MockStatsAPI) LastHeaders() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeaders
}

// LastQuery returns the most recent query parameter named key on path.
func (m *MockStatsAPI) LastQuery(path, key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery[path+"?"+key]
}

func (m *MockStatsAPI) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requests[r.URL.Path]++
	m.lastHeaders = r.Header.Clone()
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			m.lastQuery[r.URL.Path+"?"+key] = values[0]
		}
	}
	delay := m.delay
	override, hasOverride := m.overrides[r.URL.Path]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if hasOverride {
		writeMockResponse(w, override)
		return
	}

	switch {
	case r.URL.Path == "/teams":
		m.serveTeams(w)
	case strings.HasPrefix(r.URL.Path, "/teams/") && strings.HasSuffix(r.URL.Path, "/roster"):
		id, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/teams/"), "/roster"))
		if err != nil {
			http.Error(w, `{"message":"invalid team id"}`, http.StatusBadRequest)
			return
		}
		m.serveRoster(w, id)
	default:
		http.NotFound(w, r)
	}
}

func (m *MockStatsAPI) serveTeams(w http.ResponseWriter) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type named struct {
		ID   int    `json:"id,omitempty"`
		Name string `json:"name"`
	}
	type wireTeam struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Sport    named  `json:"sport"`
		League   named  `json:"league"`
		Division named  `json:"division"`
		Venue    named  `json:"venue"`
	}

	teams := make([]wireTeam, 0, len(m.teams))
	for _, t := range m.teams {
		teams = append(teams, wireTeam{
			ID:       t.ID,
			Name:     t.Name,
			Sport:    named{ID: 1, Name: "Major League Baseball"},
			League:   named{Name: t.League},
			Division: named{Name: t.Division},
			Venue:    named{Name: t.Venue},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": teams})
}

func (m *MockStatsAPI) serveRoster(w http.ResponseWriter, teamID int) {
	m.mu.RLock()
	failure, failed := m.failures[teamID]
	entries, known := m.rosters[teamID]
	m.mu.RUnlock()

	if failed {
		writeMockResponse(w, failure)
		return
	}
	if !known {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"message": fmt.Sprintf("team %d not found", teamID),
		})
		return
	}
	if entries == nil {
		entries = []roster.RosterEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roster": entries})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMockResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message": "Object not found"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse(retryAfter string) MockResponse {
	resp := MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message": "Rate limit exceeded"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
	if retryAfter != "" {
		resp.Headers["Retry-After"] = retryAfter
	}
	return resp
}

// Player builds a roster entry for tests.
func Player(id int, name, positionType, abbreviation string) roster.RosterEntry {
	return roster.RosterEntry{
		Person:       roster.Person{ID: id, FullName: name},
		JerseyNumber: strconv.Itoa(id % 100),
		Position: roster.Position{
			Code:         abbreviation,
			Name:         positionType,
			Type:         positionType,
			Abbreviation: abbreviation,
		},
		Status: roster.Status{Code: "A", Description: "Active"},
	}
}
