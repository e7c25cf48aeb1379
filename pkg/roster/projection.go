package roster

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// DefaultPageSize is the number of players shown per page.
const DefaultPageSize = 12

// PositionFilter selects a position group.
type PositionFilter string

const (
	PositionAll        PositionFilter = "all"
	PositionPitcher    PositionFilter = "P"
	PositionCatcher    PositionFilter = "C"
	PositionInfielder  PositionFilter = "IF"
	PositionOutfielder PositionFilter = "OF"
)

var (
	infieldAbbreviations  = map[string]bool{"1B": true, "2B": true, "3B": true, "SS": true}
	outfieldAbbreviations = map[string]bool{"LF": true, "CF": true, "RF": true, "OF": true}
)

// ParsePositionFilter validates a filter value. Empty means PositionAll.
func ParsePositionFilter(s string) (PositionFilter, error) {
	switch f := PositionFilter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "", "ALL":
		return PositionAll, nil
	case PositionPitcher, PositionCatcher, PositionInfielder, PositionOutfielder:
		return f, nil
	default:
		return "", fmt.Errorf("unknown position filter %q (want all, P, C, IF or OF)", s)
	}
}

// Matches reports whether a position belongs to the filter's group.
// Unknown filters match everything.
func (f PositionFilter) Matches(pos Position) bool {
	switch f {
	case PositionPitcher:
		return pos.Type == "Pitcher" || pos.Abbreviation == "P"
	case PositionCatcher:
		return pos.Abbreviation == "C"
	case PositionInfielder:
		return infieldAbbreviations[pos.Abbreviation]
	case PositionOutfielder:
		return outfieldAbbreviations[pos.Abbreviation]
	default:
		return true
	}
}

// Query describes one view over the aggregate set. Page is 1-based.
type Query struct {
	Search   string
	Position PositionFilter
	Page     int
	PageSize int
}

// Page is one projected page of players.
type Page struct {
	Items      []PlayerRecord `json:"items"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	Total      int            `json:"total"`
}

// Project filters the aggregate by search term and position (logical AND) and
// slices out the requested page. Out-of-range pages are clamped, never an error.
func Project(aggregate []PlayerRecord, q Query) Page {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(q.Search))

	filtered := make([]PlayerRecord, 0, len(aggregate))
	for _, p := range aggregate {
		if !q.Position.Matches(p.Position) {
			continue
		}
		if term != "" &&
			!strings.Contains(fold.String(p.Person.FullName), term) &&
			!strings.Contains(fold.String(p.Team.Name), term) {
			continue
		}
		filtered = append(filtered, p)
	}

	totalPages := (len(filtered) + pageSize - 1) / pageSize
	page := q.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(filtered))
	if start > end {
		start = end
	}

	return Page{
		Items:      filtered[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      len(filtered),
	}
}
