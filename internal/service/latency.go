package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/events"
)

// simulateLatency blocks for d or until ctx is done.
func simulateLatency(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// publisher stamps and dispatches events. Dispatch failures never fail the
// operation that produced the event.
type publisher struct {
	dispatcher events.Dispatcher
	now        func() time.Time
}

func (p publisher) publishEvent(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now().UTC()
	}
	_ = p.dispatcher.Publish(ctx, event)
}

// actorFromContext names the logged-in caller, if any.
func actorFromContext(ctx context.Context) events.Actor {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return events.Actor{}
	}
	return events.Actor{UserID: session.User.ID, Email: session.User.Email}
}
