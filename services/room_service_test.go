package services

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"chat-core/domain"
	"chat-core/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRoomService(t *testing.T) *ChatRoomService {
	t.Helper()
	return NewChatRoomService(repositories.NewRoomRepository(openTestDB(t)), slog.Default())
}

func Test_Resolve_Is_Order_Independent(t *testing.T) {
	req := require.New(t)
	service := newRoomService(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	first, ok, err := service.GetChatRoomID(ctx, a, b, true)
	req.NoError(err)
	req.True(ok)

	second, ok, err := service.GetChatRoomID(ctx, b, a, true)
	req.NoError(err)
	req.True(ok)
	req.Equal(first, second)
}

func Test_Resolve_Without_Creation_Has_No_Side_Effect(t *testing.T) {
	req := require.New(t)
	service := newRoomService(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	_, ok, err := service.GetChatRoomID(ctx, a, b, false)
	req.NoError(err)
	req.False(ok)

	// Still absent: the failed lookup created nothing.
	_, ok, err = service.GetChatRoomID(ctx, b, a, false)
	req.NoError(err)
	req.False(ok)
}

func Test_Resolve_Rejects_Nil_Participant(t *testing.T) {
	req := require.New(t)
	service := newRoomService(t)

	_, _, err := service.GetChatRoomID(context.Background(), uuid.Nil, uuid.New(), true)
	req.Error(err)
}

func Test_Concurrent_Resolution_Agrees_On_ChatID(t *testing.T) {
	req := require.New(t)
	service := newRoomService(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	var wg sync.WaitGroup
	results := make(chan uuid.UUID, 2)
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		id, _, err := service.GetChatRoomID(ctx, a, b, true)
		results <- id
		errs <- err
	}()
	go func() {
		defer wg.Done()
		id, _, err := service.GetChatRoomID(ctx, b, a, true)
		results <- id
		errs <- err
	}()
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		req.NoError(err)
	}
	ids := make(map[uuid.UUID]struct{})
	for id := range results {
		ids[id] = struct{}{}
	}
	req.Len(ids, 1)
	req.NotContains(ids, uuid.Nil)

	expected := domain.ChatIDFor(a, b)
	_, found := ids[expected]
	req.True(found)
}
