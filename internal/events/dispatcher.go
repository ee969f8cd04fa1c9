package events

import (
	"context"
	"sync"
	"time"

	"atendo/pkg/models"

	"github.com/rs/zerolog/log"
)

// Topic identifies a lifecycle event
type Topic string

const (
	ConversationCreated    Topic = "conversation.created"
	ConversationResolved   Topic = "conversation.resolved"
	ConversationReopened   Topic = "conversation.reopened"
	ConversationRead       Topic = "conversation.read"
	ConversationLockToggle Topic = "conversation.lock_toggle"
	AssigneeChanged        Topic = "conversation.assignee_changed"
	MessageCreated         Topic = "message.created"
	FirstReplyCreated      Topic = "message.first_reply"
)

// Event carries a committed state transition to subscribers. Timestamp is
// the transition time captured once by the publisher, not re-read per
// subscriber. Payload references must be treated as read-only.
type Event struct {
	Topic        Topic
	Timestamp    time.Time
	Conversation *models.Conversation
	Message      *models.Message
}

// Handler reacts to an event. A returned error is logged and isolated;
// it never aborts sibling subscribers or the triggering transition.
type Handler func(ctx context.Context, ev Event) error

// Dispatcher is an in-process publish mechanism for lifecycle events.
// It is an explicitly constructed dependency: services hold a reference,
// there is no process-wide instance.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[Topic][]Handler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{subscribers: make(map[Topic][]Handler)}
}

// Subscribe registers a handler for a topic. Handlers run synchronously
// in registration order.
func (d *Dispatcher) Subscribe(topic Topic, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[topic] = append(d.subscribers[topic], h)
}

// Dispatch invokes every subscriber registered for the event's topic.
// Callers must only dispatch after the triggering mutation has committed.
// A panicking or failing subscriber does not stop the ones after it.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	d.mu.RLock()
	handlers := d.subscribers[ev.Topic]
	d.mu.RUnlock()

	for _, h := range handlers {
		d.invoke(ctx, h, ev)
	}
}

func (d *Dispatcher) invoke(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("topic", string(ev.Topic)).Msg("Event subscriber panicked")
		}
	}()

	if err := h(ctx, ev); err != nil {
		log.Error().Err(err).Str("topic", string(ev.Topic)).Msg("Event subscriber failed")
	}
}
