//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"chat-core/domain"
	cerrors "chat-core/errors"
	"chat-core/repositories"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var unreadStatuses = []domain.MessageStatus{domain.StatusSent, domain.StatusDelivered}

type IChatMessageService interface {
	Save(ctx context.Context, message domain.Message) (domain.Message, error)
	MarkDelivered(ctx context.Context, chatID, recipientID uuid.UUID) ([]domain.Message, error)
	MarkRead(ctx context.Context, chatID, recipientID uuid.UUID) ([]domain.Message, error)
	MarkAllDeliveredForUser(ctx context.Context, recipientID uuid.UUID) ([]domain.Message, error)
	FindChatMessages(ctx context.Context, senderID, recipientID uuid.UUID) ([]domain.Message, error)
	UnreadCounts(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int, error)
}

// ChatMessageService owns message creation, the SENT -> DELIVERED -> READ
// lifecycle, and unread aggregation.
type ChatMessageService struct {
	messages repositories.IMessageRepository
	rooms    IChatRoomService
	log      *slog.Logger
}

func NewChatMessageService(messages repositories.IMessageRepository, rooms IChatRoomService, log *slog.Logger) *ChatMessageService {
	return &ChatMessageService{messages: messages, rooms: rooms, log: log}
}

// Save assigns missing identity fields, resolves the chat room with creation
// enabled, and persists the message with status SENT. A failed room
// resolution is fatal: nothing is persisted.
func (s *ChatMessageService) Save(ctx context.Context, message domain.Message) (domain.Message, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if message.SentAt.IsZero() {
		message.SentAt = time.Now().UTC()
	}
	message.Status = domain.StatusSent

	chatID, found, err := s.rooms.GetChatRoomID(ctx, message.SenderID, message.RecipientID, true)
	if err != nil {
		return domain.Message{}, err
	}
	if !found {
		return domain.Message{}, fmt.Errorf("%w for %s and %s",
			cerrors.ErrRoomResolution, message.SenderID, message.RecipientID)
	}
	message.ChatID = chatID

	if err := s.messages.StoreMessage(toDisk(message)); err != nil {
		return domain.Message{}, err
	}
	s.log.Info("Saved message with status SENT", "message", message.ID, "chat", chatID)
	return message, nil
}

// MarkDelivered advances every SENT message of the chat addressed to the
// recipient. Messages that concurrently reached READ are skipped; no match
// is an empty result, not an error.
func (s *ChatMessageService) MarkDelivered(ctx context.Context, chatID, recipientID uuid.UUID) ([]domain.Message, error) {
	candidates, err := s.messages.FindByChatIDAndRecipientAndStatus(chatID, recipientID, domain.StatusSent)
	if err != nil {
		return nil, err
	}
	updated, err := s.applyTransitions(candidates, s.messages.TransitionDelivered)
	if err != nil {
		return nil, err
	}
	if len(updated) > 0 {
		s.log.Info("Marked messages as DELIVERED", "count", len(updated), "chat", chatID, "recipient", recipientID)
	}
	return updated, nil
}

// MarkRead advances every SENT or DELIVERED message of the chat addressed to
// the recipient, backfilling the delivery timestamp where the delivered step
// was skipped.
func (s *ChatMessageService) MarkRead(ctx context.Context, chatID, recipientID uuid.UUID) ([]domain.Message, error) {
	candidates, err := s.messages.FindByChatIDAndRecipientAndStatusIn(chatID, recipientID, unreadStatuses)
	if err != nil {
		return nil, err
	}
	updated, err := s.applyTransitions(candidates, s.messages.TransitionRead)
	if err != nil {
		return nil, err
	}
	if len(updated) > 0 {
		s.log.Info("Marked messages as READ", "count", len(updated), "chat", chatID, "recipient", recipientID)
	}
	return updated, nil
}

// MarkAllDeliveredForUser flushes pending SENT messages across every chat of
// the recipient, used on reconnect.
func (s *ChatMessageService) MarkAllDeliveredForUser(ctx context.Context, recipientID uuid.UUID) ([]domain.Message, error) {
	candidates, err := s.messages.FindByRecipientAndStatus(recipientID, domain.StatusSent)
	if err != nil {
		return nil, err
	}
	updated, err := s.applyTransitions(candidates, s.messages.TransitionDelivered)
	if err != nil {
		return nil, err
	}
	if len(updated) > 0 {
		s.log.Info("Marked messages across all chats as DELIVERED", "count", len(updated), "recipient", recipientID)
	}
	return updated, nil
}

// FindChatMessages returns the full history between the two participants
// ordered by send time ascending, or an empty slice when no room exists yet.
// The lookup never creates a room.
func (s *ChatMessageService) FindChatMessages(ctx context.Context, senderID, recipientID uuid.UUID) ([]domain.Message, error) {
	chatID, found, err := s.rooms.GetChatRoomID(ctx, senderID, recipientID, false)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.Message{}, nil
	}
	messages, err := s.messages.FindByChatID(chatID)
	if err != nil {
		return nil, err
	}
	return fromDisk(messages), nil
}

// UnreadCounts groups the recipient's not-yet-READ messages by chat.
// Chats whose messages are all READ never appear in the map.
func (s *ChatMessageService) UnreadCounts(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int, error) {
	unread, err := s.messages.FindByRecipientAndStatusIn(recipientID, unreadStatuses)
	if err != nil {
		return nil, err
	}
	return lo.CountValuesBy(unread, func(message repositories.DiskMessage) uuid.UUID {
		return message.ChatID
	}), nil
}

// applyTransitions runs one atomic transition per candidate and keeps the
// ones that actually advanced. A transition skipped because the message
// already moved on is not an error.
func (s *ChatMessageService) applyTransitions(
	candidates []repositories.DiskMessage,
	transition func(repositories.DiskMessage, time.Time) (repositories.DiskMessage, bool, error),
) ([]domain.Message, error) {
	now := time.Now().UTC()
	updated := make([]domain.Message, 0, len(candidates))
	for _, candidate := range candidates {
		result, applied, err := transition(candidate, now)
		if err != nil {
			return nil, err
		}
		if applied {
			updated = append(updated, fromDiskMessage(result))
		}
	}
	return updated, nil
}

func fromDisk(messages []repositories.DiskMessage) []domain.Message {
	return lo.Map(messages, func(item repositories.DiskMessage, _ int) domain.Message {
		return fromDiskMessage(item)
	})
}

func fromDiskMessage(item repositories.DiskMessage) domain.Message {
	return domain.Message{
		ID:          item.ID,
		ChatID:      item.ChatID,
		SenderID:    item.SenderID,
		RecipientID: item.RecipientID,
		Content:     item.Content,
		Status:      item.Status,
		SentAt:      item.SentAt,
		DeliveredAt: item.DeliveredAt,
		ReadAt:      item.ReadAt,
	}
}

func toDisk(message domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:          message.ID,
		ChatID:      message.ChatID,
		SenderID:    message.SenderID,
		RecipientID: message.RecipientID,
		Content:     message.Content,
		Status:      message.Status,
		SentAt:      message.SentAt,
		DeliveredAt: message.DeliveredAt,
		ReadAt:      message.ReadAt,
	}
}
