package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-core/domain"
	"chat-core/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_Publish_Never_Blocks_When_Queue_Is_Full(t *testing.T) {
	req := require.New(t)
	dispatcher := NewChannelDispatcher(slog.Default(), 1)
	ctx := context.Background()

	// No fanout worker is draining: the second publish drops instead of blocking.
	req.NoError(dispatcher.PublishPresence(ctx, domain.User{ID: uuid.New()}))
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = dispatcher.PublishPresence(ctx, domain.User{ID: uuid.New()})
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full queue")
	}
}

func Test_Published_Events_Are_Queued_In_Order(t *testing.T) {
	req := require.New(t)
	dispatcher := NewChannelDispatcher(slog.Default(), 8)
	ctx := context.Background()

	first := event.MessageSent{ID: uuid.New(), RecipientID: uuid.New(), Content: "one"}
	req.NoError(dispatcher.PublishMessage(ctx, first))
	req.NoError(dispatcher.PublishPresence(ctx, domain.User{ID: uuid.New(), Status: domain.StatusOnline}))

	received := <-dispatcher.Events()
	req.Equal(first, received)
	presence, ok := (<-dispatcher.Events()).(event.PresenceChanged)
	req.True(ok)
	req.Equal(domain.StatusOnline, presence.User.Status)
}
