// Package filter provides query parameter parsing and pagination for API endpoints.
package filter

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// Pagination defaults and bounds.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Page selects a window of a result list.
type Page struct {
	Limit  int
	Offset int
}

// EventQuery is the parsed form of GET /events.
type EventQuery struct {
	competitions.EventFilter
	Page
}

// ParseEventQuery extracts event filter parameters from an HTTP request.
// Enumerations are validated so a typo answers 400 rather than an empty
// list.
func ParseEventQuery(r *http.Request) (EventQuery, error) {
	q := r.URL.Query()

	query := EventQuery{
		EventFilter: competitions.EventFilter{
			Status:      strings.TrimSpace(q.Get("status")),
			Difficulty:  strings.TrimSpace(q.Get("difficulty")),
			Theme:       strings.TrimSpace(q.Get("theme")),
			Search:      strings.TrimSpace(q.Get("search")),
			OrganizerID: strings.TrimSpace(q.Get("organizer")),
		},
		Page: ParsePage(r),
	}

	if err := query.Validate(); err != nil {
		return query, err
	}

	if v := q.Get("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return query, errors.NewValidationError("featured", v, "must be a boolean")
		}
		query.Featured = &b
	}

	return query, nil
}

// ParseSubmissionQuery extracts submission list parameters. The scope
// (event or user) comes from the route, not the query string.
func ParseSubmissionQuery(r *http.Request) (competitions.SubmissionQuery, error) {
	status := competitions.SubmissionStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status"))))
	if status != "" && !status.Valid() {
		return competitions.SubmissionQuery{}, errors.NewValidationError("status", string(status), "unknown submission status")
	}
	return competitions.SubmissionQuery{Status: status}, nil
}

// ParsePage reads limit and offset, clamping them to sane bounds.
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	p := Page{
		Limit:  parseIntOrDefault(q.Get("limit"), DefaultLimit),
		Offset: parseIntOrDefault(q.Get("offset"), 0),
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Paginate returns the page window of items.
func Paginate[T any](items []T, p Page) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if p.Limit > 0 && p.Offset+p.Limit < end {
		end = p.Offset + p.Limit
	}
	return items[p.Offset:end]
}

// parseIntOrDefault parses an integer or returns the default value.
func parseIntOrDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
