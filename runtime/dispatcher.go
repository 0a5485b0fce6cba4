// Package runtime hosts the in-process notification plumbing: the session
// registry, the dispatcher, and the supervised fan-out worker. It contains
// no business logic or domain rules.
package runtime

import (
	"chat-core/domain"
	"chat-core/domain/event"
	"context"
	"fmt"
	"log/slog"
)

// ChannelDispatcher is the in-process implementation of the notification
// port. Publishing enqueues onto a buffered channel and never blocks: when
// the buffer is full the event is dropped with a warning. Durability is the
// store's job; by the time an event reaches the dispatcher the state change
// is already committed.
type ChannelDispatcher struct {
	log    *slog.Logger
	events chan event.DomainEvent
}

func NewChannelDispatcher(log *slog.Logger, bufferSize int) *ChannelDispatcher {
	return &ChannelDispatcher{
		log:    log,
		events: make(chan event.DomainEvent, bufferSize),
	}
}

// Events exposes the queue drained by the fan-out worker.
func (d *ChannelDispatcher) Events() <-chan event.DomainEvent {
	return d.events
}

func (d *ChannelDispatcher) PublishMessage(ctx context.Context, e event.MessageSent) error {
	return d.enqueue(e)
}

func (d *ChannelDispatcher) PublishPresence(ctx context.Context, user domain.User) error {
	return d.enqueue(event.PresenceChanged{User: user})
}

func (d *ChannelDispatcher) enqueue(e event.DomainEvent) error {
	select {
	case d.events <- e:
		return nil
	default:
		d.log.Warn(fmt.Sprintf("Notification channel full, dropping %T", e))
		return nil
	}
}
