package events

import (
	"net/url"
	"strings"
)

// Scope selects the events a realtime client receives. The zero Scope
// matches everything.
type Scope struct {
	EventID string
	Types   map[EventType]bool
}

// ScopeFromQuery reads the event_id and types parameters of a realtime
// request. types is a comma-separated list such as
// "submission.evaluated,leaderboard.updated".
func ScopeFromQuery(q url.Values) Scope {
	s := Scope{EventID: q.Get("event_id")}
	for _, t := range strings.Split(q.Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			if s.Types == nil {
				s.Types = make(map[EventType]bool)
			}
			s.Types[EventType(t)] = true
		}
	}
	return s
}

// Matches reports whether an event of type t about competition eventID is
// in scope. Platform-wide events (no eventID) reach every competition
// scope. Connection notices ignore the type filter.
func (s Scope) Matches(eventID string, t EventType) bool {
	if s.EventID != "" && eventID != "" && eventID != s.EventID {
		return false
	}
	return len(s.Types) == 0 || s.Types[t] || t == ClientConnected
}
