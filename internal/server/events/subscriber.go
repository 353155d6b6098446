package events

// Subscriber is an interface for event consumers. Implementations adapt
// the event stream to a transport.
type Subscriber interface {
	// Send delivers an event to the subscriber. It must not block for
	// long; slow transports buffer or drop.
	Send(Event) error

	// Close cleanly shuts down the subscriber.
	Close() error
}

// Filter is implemented by subscribers that only care about some event
// types. The broker skips events a filter rejects.
type Filter interface {
	Wants(EventType) bool
}
