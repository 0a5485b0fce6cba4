//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-core/domain"
	"chat-core/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one connected session's inbound channel view.
// Consume must respect ctx; the fanout worker bounds it with a timeout.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// Dispatcher is the notification port of the messaging core.
// Both methods are fire-and-forget: the core invokes them only after the
// triggering state change is durable, never blocks on them, and never
// retries. A returned error is logged by the caller and swallowed.
type Dispatcher interface {
	// PublishMessage targets the recipient's private channel, at most once.
	PublishMessage(ctx context.Context, e event.MessageSent) error
	// PublishPresence broadcasts on the shared presence channel.
	PublishPresence(ctx context.Context, user domain.User) error
}
