// Package events fans session lifecycle events out to the event log and the broker.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	TypeSessionStarted   = "session.started"
	TypeSessionResumed   = "session.resumed"
	TypeSessionSubmitted = "session.submitted"
	TypeSessionExpired   = "session.auto_submitted"
	TypeSessionDiscarded = "session.discarded"
	TypeDocumentImported = "document.imported"
)

type Event struct {
	Type      string    `json:"event_type"`
	Key       string    `json:"key"` // session or document id
	OwnerID   string    `json:"owner_id,omitempty"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
