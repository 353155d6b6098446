package competitions

import (
	"strings"

	"github.com/evalia-ai/evalia/pkg/errors"
)

// All is the filter value that disables a predicate.
const All = "all"

// EventFilter selects events. Every set predicate must hold; an empty value
// or "all" disables a predicate.
type EventFilter struct {
	Status      string `json:"status,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Theme       string `json:"theme,omitempty"`
	Search      string `json:"search,omitempty"`
	OrganizerID string `json:"organizer_id,omitempty"`
	Featured    *bool  `json:"featured,omitempty"`
}

// Match reports whether e satisfies every active predicate.
func (f EventFilter) Match(e *Event) bool {
	if !matchEnum(f.Status, string(e.Status)) {
		return false
	}
	if !matchEnum(f.Difficulty, string(e.Difficulty)) {
		return false
	}
	if !matchEnum(f.Theme, string(e.Theme)) {
		return false
	}
	if f.OrganizerID != "" && e.Organizer.ID != f.OrganizerID {
		return false
	}
	if f.Featured != nil && e.Featured != *f.Featured {
		return false
	}
	// Stray spaces typed around a query are not part of it.
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(e.Title), q) &&
			!strings.Contains(strings.ToLower(e.DescriptionShort), q) {
			return false
		}
	}
	return true
}

// Validate rejects enum predicates that name no known value.
func (f EventFilter) Validate() error {
	if s := f.Status; !isAll(s) && !EventStatus(strings.ToLower(s)).Valid() {
		return errors.NewValidationError("status", s, "unknown event status")
	}
	if d := f.Difficulty; !isAll(d) && !Difficulty(strings.ToLower(d)).Valid() {
		return errors.NewValidationError("difficulty", d, "unknown difficulty")
	}
	if t := f.Theme; !isAll(t) && !Theme(strings.ToLower(t)).Valid() {
		return errors.NewValidationError("theme", t, "unknown theme")
	}
	return nil
}

// Apply returns the events that match, preserving order.
func (f EventFilter) Apply(events []*Event) []*Event {
	out := make([]*Event, 0, len(events))
	for _, e := range events {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, All)
}

func matchEnum(want, got string) bool {
	if isAll(want) {
		return true
	}
	return strings.EqualFold(want, got)
}

// SubmissionQuery selects submissions. Empty fields match everything.
type SubmissionQuery struct {
	EventID string           `json:"event_id,omitempty"`
	UserID  string           `json:"user_id,omitempty"`
	Status  SubmissionStatus `json:"status,omitempty"`
}

// Match reports whether s satisfies every set field.
func (q SubmissionQuery) Match(s *Submission) bool {
	if q.EventID != "" && s.EventID != q.EventID {
		return false
	}
	if q.UserID != "" && s.UserID != q.UserID {
		return false
	}
	if q.Status != "" && !strings.EqualFold(string(q.Status), All) && s.Status != q.Status {
		return false
	}
	return true
}
