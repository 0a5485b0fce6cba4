package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-core/domain"
	"chat-core/domain/event"
	"chat-core/runtime"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type channelSink struct {
	events chan event.DomainEvent
}

func newChannelSink() *channelSink {
	return &channelSink{events: make(chan event.DomainEvent, 8)}
}

func (s *channelSink) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *channelSink) receive(t *testing.T) event.DomainEvent {
	t.Helper()
	select {
	case e := <-s.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func Test_Message_Event_Reaches_Only_The_Recipient(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewChannelDispatcher(slog.Default(), 8)

	recipientID, bystanderID := uuid.New(), uuid.New()
	recipient, bystander := newChannelSink(), newChannelSink()
	registry.Subscribe(recipientID, recipient)
	registry.Subscribe(bystanderID, bystander)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fanout := NewNotificationFanout(slog.Default(), dispatcher.Events(), registry, time.Second)
	go func() { _ = fanout.Run(ctx) }()

	sent := event.MessageSent{ID: uuid.New(), ChatID: uuid.New(), SenderID: bystanderID, RecipientID: recipientID, Content: "hi"}
	req.NoError(dispatcher.PublishMessage(ctx, sent))

	received := recipient.receive(t)
	req.Equal(sent, received)
	req.Empty(bystander.events)
}

func Test_Presence_Event_Is_Broadcast(t *testing.T) {
	req := require.New(t)
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewChannelDispatcher(slog.Default(), 8)

	first, second := newChannelSink(), newChannelSink()
	registry.Subscribe(uuid.New(), first)
	registry.Subscribe(uuid.New(), second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fanout := NewNotificationFanout(slog.Default(), dispatcher.Events(), registry, time.Second)
	go func() { _ = fanout.Run(ctx) }()

	user := domain.User{ID: uuid.New(), Username: "alice", Status: domain.StatusOnline}
	req.NoError(dispatcher.PublishPresence(ctx, user))

	for _, sink := range []*channelSink{first, second} {
		received := sink.receive(t)
		presence, ok := received.(event.PresenceChanged)
		req.True(ok)
		req.Equal(user, presence.User)
	}
}
