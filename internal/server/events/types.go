// Package events fans platform activity out to realtime transports.
//
// The server registers hooks on the evalia client that publish to a Broker.
// The broker delivers every event to its subscribers (WebSocket, SSE and
// optionally a Discord channel) through a single pipeline.
package events

import "time"

// EventType names a platform event.
type EventType string

// Event types published by the server.
const (
	EventCreated EventType = "event.created"
	EventUpdated EventType = "event.updated"
	EventJoined  EventType = "event.joined"
	EventLeft    EventType = "event.left"

	SubmissionCreated   EventType = "submission.created"
	SubmissionEvaluated EventType = "submission.evaluated"
	SubmissionFailed    EventType = "submission.failed"

	LeaderboardUpdated EventType = "leaderboard.updated"

	// ClientConnected is sent by transports to a newly connected client.
	ClientConnected EventType = "client.connected"
)

// Event is a typed, timestamped payload. EventID names the competition
// the event is about, if any. Seq increases by one per published event.
type Event struct {
	Seq       uint64    `json:"seq"`
	Type      EventType `json:"type"`
	EventID   string    `json:"event_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
