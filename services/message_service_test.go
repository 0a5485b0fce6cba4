package services

import (
	"context"
	"log/slog"
	"testing"

	"chat-core/domain"
	"chat-core/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newMessageService(t *testing.T) *ChatMessageService {
	t.Helper()
	db := openTestDB(t)
	rooms := NewChatRoomService(repositories.NewRoomRepository(db), slog.Default())
	return NewChatMessageService(repositories.NewMessageRepository(db, slog.Default(), nil), rooms, slog.Default())
}

func Test_Save_Assigns_Identity_And_Room(t *testing.T) {
	req := require.New(t)
	service := newMessageService(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	saved, err := service.Save(ctx, domain.Message{SenderID: u1, RecipientID: u2, Content: "hi"})
	req.NoError(err)
	req.NotEqual(uuid.Nil, saved.ID)
	req.Equal(domain.StatusSent, saved.Status)
	req.False(saved.SentAt.IsZero())
	req.Equal(domain.ChatIDFor(u1, u2), saved.ChatID)
}

func Test_History_Is_Empty_Before_First_Contact(t *testing.T) {
	req := require.New(t)
	service := newMessageService(t)

	history, err := service.FindChatMessages(context.Background(), uuid.New(), uuid.New())
	req.NoError(err)
	req.Empty(history)
}

func Test_Submit_History_And_Read_Scenario(t *testing.T) {
	req := require.New(t)
	service := newMessageService(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	saved, err := service.Save(ctx, domain.Message{SenderID: u1, RecipientID: u2, Content: "hi"})
	req.NoError(err)
	req.Equal(domain.StatusSent, saved.Status)
	chatID := saved.ChatID

	for _, pair := range [][2]uuid.UUID{{u1, u2}, {u2, u1}} {
		history, err := service.FindChatMessages(ctx, pair[0], pair[1])
		req.NoError(err)
		req.Len(history, 1)
		req.Equal(u1, history[0].SenderID)
		req.Equal(u2, history[0].RecipientID)
		req.Equal("hi", history[0].Content)
		req.Equal(domain.StatusSent, history[0].Status)
	}

	read, err := service.MarkRead(ctx, chatID, u2)
	req.NoError(err)
	req.Len(read, 1)
	req.Equal(domain.StatusRead, read[0].Status)
	req.NotNil(read[0].DeliveredAt)
	req.Equal(*read[0].ReadAt, *read[0].DeliveredAt)
}

func Test_Mark_Delivered_Then_Read_Keeps_Timestamp_Order(t *testing.T) {
	req := require.New(t)
	service := newMessageService(t)
	ctx := context.Background()
	u1, u2 := uuid.New(), uuid.New()

	saved, err := service.Save(ctx, domain.Message{SenderID: u1, RecipientID: u2, Content: "hi"})
	req.NoError(err)

	delivered, err := service.MarkDelivered(ctx, saved.ChatID, u2)
	req.NoError(err)
	req.Len(delivered, 1)
	req.Equal(domain.StatusDelivered, delivered[0].Status)

	read, err := service.MarkRead(ctx, saved.ChatID, u2)
	req.NoError(err)
	req.Len(read, 1)
	req.Equal(domain.StatusRead, read[0].Status)
	req.True(!read[0].ReadAt.Before(*read[0].DeliveredAt))

	// Both acknowledgements are idempotent no-ops afterwards.
	again, err := service.MarkDelivered(ctx, saved.ChatID, u2)
	req.NoError(err)
	req.Empty(again)
	again, err = service.MarkRead(ctx, saved.ChatID, u2)
	req.NoError(err)
	req.Empty(again)
}

func Test_Mark_Delivered_Without_Matches_Is_Empty(t *testing.T) {
	req := require.New(t)
	service := newMessageService(t)

	updated, err := service.MarkDelivered(context.Background(), uuid.New(), uuid.New())
	req.NoError(err)
	req.Empty(updated)
}

func Test_Mark_All_Delivered_For_User_Spans_Chats(t *testing.T) {
	req := require.New(t)
	service := newMessageService(t)
	ctx := context.Background()
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()

	_, err := service.Save(ctx, domain.Message{SenderID: u1, RecipientID: u3, Content: "from u1"})
	req.NoError(err)
	_, err = service.Save(ctx, domain.Message{SenderID: u2, RecipientID: u3, Content: "from u2"})
	req.NoError(err)

	flushed, err := service.MarkAllDeliveredForUser(ctx, u3)
	req.NoError(err)
	req.Len(flushed, 2)
	for _, msg := range flushed {
		req.Equal(domain.StatusDelivered, msg.Status)
	}

	// Messages sent by u3 must not be touched by u3's flush.
	_, err = service.Save(ctx, domain.Message{SenderID: u3, RecipientID: u1, Content: "reply"})
	req.NoError(err)
	flushed, err = service.MarkAllDeliveredForUser(ctx, u3)
	req.NoError(err)
	req.Empty(flushed)
}

func Test_Unread_Counts_Group_By_Chat_And_Exclude_Read(t *testing.T) {
	req := require.New(t)
	service := newMessageService(t)
	ctx := context.Background()
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()

	first, err := service.Save(ctx, domain.Message{SenderID: u1, RecipientID: u3, Content: "one"})
	req.NoError(err)
	_, err = service.Save(ctx, domain.Message{SenderID: u1, RecipientID: u3, Content: "two"})
	req.NoError(err)
	second, err := service.Save(ctx, domain.Message{SenderID: u2, RecipientID: u3, Content: "three"})
	req.NoError(err)

	counts, err := service.UnreadCounts(ctx, u3)
	req.NoError(err)
	req.Equal(map[uuid.UUID]int{first.ChatID: 2, second.ChatID: 1}, counts)

	// DELIVERED still counts as unread.
	_, err = service.MarkDelivered(ctx, first.ChatID, u3)
	req.NoError(err)
	counts, err = service.UnreadCounts(ctx, u3)
	req.NoError(err)
	req.Equal(2, counts[first.ChatID])

	// A fully READ chat disappears from the map.
	_, err = service.MarkRead(ctx, second.ChatID, u3)
	req.NoError(err)
	counts, err = service.UnreadCounts(ctx, u3)
	req.NoError(err)
	req.Equal(map[uuid.UUID]int{first.ChatID: 2}, counts)
}
