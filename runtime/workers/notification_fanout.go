package workers

import (
	"chat-core/contract"
	"chat-core/domain/event"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SessionRegistry resolves connected sessions for delivery.
type SessionRegistry interface {
	SinkFor(userID uuid.UUID) (contract.EventSink, bool)
	Snapshot() []contract.EventSink
}

// NotificationFanout drains the dispatcher queue and delivers each event to
// the matching sessions: point-to-point for message notifications, every
// session for presence broadcasts.
//
// Delivery is best-effort with no retries; a slow sink is cut off by the
// per-sink timeout so one stuck connection cannot stall the queue.
type NotificationFanout struct {
	log         *slog.Logger
	events      <-chan event.DomainEvent
	registry    SessionRegistry
	sinkTimeout time.Duration
}

func NewNotificationFanout(log *slog.Logger, events <-chan event.DomainEvent, registry SessionRegistry, sinkTimeout time.Duration) *NotificationFanout {
	return &NotificationFanout{log: log, events: events, registry: registry, sinkTimeout: sinkTimeout}
}

func (w *NotificationFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping notification fanout")
			return nil
		}
	}
}

func (w *NotificationFanout) fanout(ctx context.Context, evt event.DomainEvent) {
	switch e := evt.(type) {
	case event.MessageSent:
		sink, ok := w.registry.SinkFor(e.RecipientID)
		if !ok {
			w.log.Debug("Recipient offline, notification skipped", "recipient", e.RecipientID)
			return
		}
		w.consume(ctx, sink, e)
	case event.PresenceChanged:
		for _, sink := range w.registry.Snapshot() {
			w.consume(ctx, sink, e)
		}
	default:
		w.log.Debug("Unhandled event kind", "event", evt)
	}
}

func (w *NotificationFanout) consume(ctx context.Context, sink contract.EventSink, evt event.DomainEvent) {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sinkCtx, evt); err != nil {
		w.log.Warn("Sink rejected event", "error", err)
	}
}
