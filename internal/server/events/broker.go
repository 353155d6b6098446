package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	publishBuffer = 256
	deliverBuffer = 64
)

// Broker fans platform events out to subscribers. Every subscriber has its
// own queue and goroutine, so it sees events in publish order and a slow
// transport only delays itself.
type Broker struct {
	mu     sync.RWMutex
	subs   map[Subscriber]*outbox
	events chan Event
	seq    atomic.Uint64
	logger *zerolog.Logger
	now    func() time.Time
}

type outbox struct {
	queue chan Event
	done  chan struct{}
}

// NewBroker creates a new event broker. Subscribers may register before
// Run starts.
func NewBroker(logger *zerolog.Logger) *Broker {
	return &Broker{
		subs:   make(map[Subscriber]*outbox),
		events: make(chan Event, publishBuffer),
		logger: logger,
		now:    time.Now,
	}
}

// Run dispatches published events until ctx is cancelled, then closes
// every subscriber.
func (b *Broker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.mu.Lock()
			subs := b.subs
			b.subs = make(map[Subscriber]*outbox)
			b.mu.Unlock()
			for sub, box := range subs {
				b.stop(sub, box)
			}
			b.logger.Info().Int("subscribers", len(subs)).Msg("Event broker shut down")
			return

		case event := <-b.events:
			b.dispatch(event)
		}
	}
}

func (b *Broker) dispatch(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for sub, box := range b.subs {
		if f, ok := sub.(Filter); ok && !f.Wants(event.Type) {
			continue
		}
		select {
		case box.queue <- event:
			delivered++
		default:
			b.logger.Warn().
				Str("event_type", string(event.Type)).
				Str("subscriber", fmt.Sprintf("%T", sub)).
				Msg("Subscriber queue full, event dropped")
		}
	}
	b.logger.Debug().
		Str("event_type", string(event.Type)).
		Uint64("seq", event.Seq).
		Int("subscribers", delivered).
		Msg("Event broadcasted")
}

func (b *Broker) deliver(sub Subscriber, box *outbox) {
	for {
		select {
		case <-box.done:
			return
		case event := <-box.queue:
			if err := sub.Send(event); err != nil {
				b.logger.Warn().
					Err(err).
					Str("event_type", string(event.Type)).
					Msg("Failed to send event to subscriber")
			}
		}
	}
}

func (b *Broker) stop(sub Subscriber, box *outbox) {
	close(box.done)
	if err := sub.Close(); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to close subscriber")
	}
}

// Publish queues an event about competition eventID for all subscribers.
// Events are dropped when the queue is full.
func (b *Broker) Publish(eventType EventType, eventID string, data any) {
	event := Event{
		Seq:       b.seq.Add(1),
		Type:      eventType,
		EventID:   eventID,
		Timestamp: b.now().UTC(),
		Data:      data,
	}

	select {
	case b.events <- event:
	default:
		b.logger.Warn().
			Str("event_type", string(eventType)).
			Msg("Event channel full, event dropped")
	}
}

// Subscribe registers sub and starts its delivery goroutine. Subscribing
// twice is a no-op.
func (b *Broker) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; ok {
		return
	}
	box := &outbox{queue: make(chan Event, deliverBuffer), done: make(chan struct{})}
	b.subs[sub] = box
	go b.deliver(sub, box)
	b.logger.Debug().Int("total_subscribers", len(b.subs)).Msg("Subscriber registered")
}

// Unsubscribe stops delivering to sub and closes it.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	box, ok := b.subs[sub]
	delete(b.subs, sub)
	n := len(b.subs)
	b.mu.Unlock()
	if !ok {
		return
	}
	b.stop(sub, box)
	b.logger.Debug().Int("total_subscribers", n).Msg("Subscriber unregistered")
}

// SubscriberCount returns the current number of subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
