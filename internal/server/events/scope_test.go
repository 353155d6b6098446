package events

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeFromQuery(t *testing.T) {
	q := url.Values{"event_id": {"3"}, "types": {"submission.evaluated, leaderboard.updated,,"}}
	s := ScopeFromQuery(q)
	assert.Equal(t, "3", s.EventID)
	assert.Len(t, s.Types, 2)
	assert.True(t, s.Types[LeaderboardUpdated])

	assert.Equal(t, Scope{}, ScopeFromQuery(url.Values{}))
}

func TestScopeMatches(t *testing.T) {
	tests := []struct {
		name    string
		scope   Scope
		eventID string
		typ     EventType
		want    bool
	}{
		{"zero scope", Scope{}, "1", SubmissionEvaluated, true},
		{"same competition", Scope{EventID: "1"}, "1", EventJoined, true},
		{"other competition", Scope{EventID: "1"}, "2", EventJoined, false},
		{"platform wide", Scope{EventID: "1"}, "", EventCreated, true},
		{"type selected", Scope{Types: map[EventType]bool{LeaderboardUpdated: true}}, "1", LeaderboardUpdated, true},
		{"type not selected", Scope{Types: map[EventType]bool{LeaderboardUpdated: true}}, "1", SubmissionCreated, false},
		{"connection notice", Scope{EventID: "1", Types: map[EventType]bool{LeaderboardUpdated: true}}, "1", ClientConnected, true},
		{"connection notice elsewhere", Scope{EventID: "1"}, "2", ClientConnected, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.Matches(tt.eventID, tt.typ))
		})
	}
}
