package notification

import (
	"context"
	"time"

	"github.com/viant/retract/internal/clock"
	"github.com/viant/retract/model/request"
)

// Event topics.
const (
	TopicRequestCreated = "request.created"
	TopicRequestDecided = "request.decided"
)

// Event describes a request lifecycle change.
type Event struct {
	Topic        string                   `json:"topic"`
	Request      *request.DeletionRequest `json:"request"`
	Status       request.Status           `json:"status"`
	NotesForUser string                   `json:"notesForUser,omitempty"`
	Actor        string                   `json:"actor,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
}

// NewCreatedEvent returns the event emitted once a request is persisted.
func NewCreatedEvent(r *request.DeletionRequest) *Event {
	return &Event{
		Topic:     TopicRequestCreated,
		Request:   r.Clone(),
		Status:    r.Status,
		Actor:     r.RequesterID,
		CreatedAt: clock.Now(),
	}
}

// NewDecidedEvent returns the event emitted once a request reached a terminal status.
func NewDecidedEvent(r *request.DeletionRequest, actor, notesForUser string) *Event {
	return &Event{
		Topic:        TopicRequestDecided,
		Request:      r.Clone(),
		Status:       r.Status,
		NotesForUser: notesForUser,
		Actor:        actor,
		CreatedAt:    clock.Now(),
	}
}

// Publisher accepts events without blocking on delivery.
type Publisher interface {
	Publish(ctx context.Context, event *Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event *Event)

// Publish calls fn.
func (fn PublisherFunc) Publish(ctx context.Context, event *Event) { fn(ctx, event) }

// Nop discards every event.
var Nop Publisher = PublisherFunc(func(context.Context, *Event) {})
