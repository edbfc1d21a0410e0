// Package audit records eligibility decisions and address list mutations.
//
// Events go to a capped Redis stream when Redis is configured. Without Redis
// the NopSink is used and nothing is persisted; the check path never fails
// because of auditing.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names what happened.
type EventType string

const (
	EventCheck      EventType = "address.check"
	EventListCreate EventType = "address_list.create"
	EventListUpdate EventType = "address_list.update"
	EventListDelete EventType = "address_list.delete"
	EventListImport EventType = "address_list.import"
)

// Event is one audit record. Payload is serialized as JSON.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	DatabaseRef string    `json:"database_ref"`
	Actor       string    `json:"actor,omitempty"`
	Payload     any       `json:"payload,omitempty"`
	At          time.Time `json:"at"`
}

// NewEvent stamps an event with a fresh ID and the current time.
func NewEvent(t EventType, ref string, payload any) Event {
	return Event{
		ID:          uuid.New().String(),
		Type:        t,
		DatabaseRef: ref,
		Payload:     payload,
		At:          time.Now().UTC(),
	}
}

// Sink accepts audit events.
type Sink interface {
	Record(ctx context.Context, e Event) error
}

// Reader returns the most recent events, newest first.
type Reader interface {
	Recent(ctx context.Context, n int64) ([]Event, error)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Record(context.Context, Event) error { return nil }

func (NopSink) Recent(context.Context, int64) ([]Event, error) { return nil, nil }

type actorKey struct{}

// WithActor attaches the acting user to ctx.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the actor stored by WithActor, or "".
func ActorFrom(ctx context.Context) string {
	a, _ := ctx.Value(actorKey{}).(string)
	return a
}
