package evalia

import (
	"sync"

	"github.com/evalia-ai/evalia/pkg/competitions"
)

// Hook function types for platform events.
type (
	// EventHook is called when an event is created or updated.
	EventHook func(event *competitions.Event)

	// MembershipHook is called when a user joins or leaves an event.
	MembershipHook func(event *competitions.Event, userID string)

	// SubmissionHook is called when a submission is created, evaluated or fails.
	SubmissionHook func(submission *competitions.Submission)
)

// Hooks registers callbacks for platform events. Callbacks run
// synchronously on the goroutine that caused the event and receive copies.
type Hooks interface {
	OnEventCreated(EventHook)
	OnEventUpdated(EventHook)
	OnEventJoined(MembershipHook)
	OnEventLeft(MembershipHook)
	OnSubmissionCreated(SubmissionHook)
	OnSubmissionEvaluated(SubmissionHook)
	OnSubmissionFailed(SubmissionHook)
}

// hooks manages event callbacks.
type hooks struct {
	mu                    sync.RWMutex
	onEventCreated        []EventHook
	onEventUpdated        []EventHook
	onEventJoined         []MembershipHook
	onEventLeft           []MembershipHook
	onSubmissionCreated   []SubmissionHook
	onSubmissionEvaluated []SubmissionHook
	onSubmissionFailed    []SubmissionHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnEventCreated registers a callback for new events.
func (h *hooks) OnEventCreated(fn EventHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEventCreated = append(h.onEventCreated, fn)
}

// OnEventUpdated registers a callback for event changes, including status
// changes, moderation and participant counts.
func (h *hooks) OnEventUpdated(fn EventHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEventUpdated = append(h.onEventUpdated, fn)
}

// OnEventJoined registers a callback for joins.
func (h *hooks) OnEventJoined(fn MembershipHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEventJoined = append(h.onEventJoined, fn)
}

// OnEventLeft registers a callback for leaves and exclusions.
func (h *hooks) OnEventLeft(fn MembershipHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEventLeft = append(h.onEventLeft, fn)
}

// OnSubmissionCreated registers a callback for accepted uploads.
func (h *hooks) OnSubmissionCreated(fn SubmissionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSubmissionCreated = append(h.onSubmissionCreated, fn)
}

// OnSubmissionEvaluated registers a callback for scored submissions.
func (h *hooks) OnSubmissionEvaluated(fn SubmissionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSubmissionEvaluated = append(h.onSubmissionEvaluated, fn)
}

// OnSubmissionFailed registers a callback for failed evaluations.
func (h *hooks) OnSubmissionFailed(fn SubmissionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onSubmissionFailed = append(h.onSubmissionFailed, fn)
}

func (h *hooks) eventCreated(e *competitions.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEventCreated {
		fn(e.Clone())
	}
}

func (h *hooks) eventUpdated(e *competitions.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEventUpdated {
		fn(e.Clone())
	}
}

func (h *hooks) eventJoined(e *competitions.Event, userID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEventJoined {
		fn(e.Clone(), userID)
	}
}

func (h *hooks) eventLeft(e *competitions.Event, userID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onEventLeft {
		fn(e.Clone(), userID)
	}
}

func (h *hooks) submission(list []SubmissionHook, s *competitions.Submission) {
	for _, fn := range list {
		fn(s.Clone())
	}
}

func (h *hooks) submissionCreated(s *competitions.Submission) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.submission(h.onSubmissionCreated, s)
}

func (h *hooks) submissionEvaluated(s *competitions.Submission) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.submission(h.onSubmissionEvaluated, s)
}

func (h *hooks) submissionFailed(s *competitions.Submission) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.submission(h.onSubmissionFailed, s)
}

// OnEventCreated implements Hooks.
func (c *client) OnEventCreated(fn EventHook) { c.hooks.OnEventCreated(fn) }

// OnEventUpdated implements Hooks.
func (c *client) OnEventUpdated(fn EventHook) { c.hooks.OnEventUpdated(fn) }

// OnEventJoined implements Hooks.
func (c *client) OnEventJoined(fn MembershipHook) { c.hooks.OnEventJoined(fn) }

// OnEventLeft implements Hooks.
func (c *client) OnEventLeft(fn MembershipHook) { c.hooks.OnEventLeft(fn) }

// OnSubmissionCreated implements Hooks.
func (c *client) OnSubmissionCreated(fn SubmissionHook) { c.hooks.OnSubmissionCreated(fn) }

// OnSubmissionEvaluated implements Hooks.
func (c *client) OnSubmissionEvaluated(fn SubmissionHook) { c.hooks.OnSubmissionEvaluated(fn) }

// OnSubmissionFailed implements Hooks.
func (c *client) OnSubmissionFailed(fn SubmissionHook) { c.hooks.OnSubmissionFailed(fn) }
