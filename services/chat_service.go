package services

import (
	"chat-core/contract"
	"chat-core/domain"
	"chat-core/domain/event"
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type IChatService interface {
	SubmitMessage(ctx context.Context, cmd domain.SubmitMessageCommand) (domain.Message, error)
	MarkDelivered(ctx context.Context, chatID, recipientID uuid.UUID) ([]domain.Message, error)
	MarkRead(ctx context.Context, chatID, recipientID uuid.UUID) ([]domain.Message, error)
	Connect(ctx context.Context, cmd domain.ConnectCommand) (domain.User, error)
	Disconnect(ctx context.Context, userID uuid.UUID) (domain.User, bool, error)
	ListHistory(ctx context.Context, senderID, recipientID uuid.UUID) ([]domain.Message, error)
	ListOnline(ctx context.Context) ([]domain.User, error)
	UnreadCounts(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int, error)
}

// ChatService is the inbound surface of the messaging core, invoked by the
// transport layer with already-verified participant identifiers. It enforces
// the ordering rule of the core: persistence commits before any notification
// is dispatched, and dispatch failures are logged, never surfaced.
type ChatService struct {
	messages   IChatMessageService
	users      IUserService
	dispatcher contract.Dispatcher
	log        *slog.Logger
}

func NewChatService(messages IChatMessageService, users IUserService, dispatcher contract.Dispatcher, log *slog.Logger) *ChatService {
	return &ChatService{messages: messages, users: users, dispatcher: dispatcher, log: log}
}

// SubmitMessage validates, persists, and then notifies the recipient's
// private channel. The notification is best-effort: a dispatch failure does
// not roll back the persisted message.
func (s *ChatService) SubmitMessage(ctx context.Context, cmd domain.SubmitMessageCommand) (domain.Message, error) {
	if err := cmd.Validate(); err != nil {
		return domain.Message{}, err
	}

	saved, err := s.messages.Save(ctx, domain.Message{
		SenderID:    cmd.SenderID,
		RecipientID: cmd.RecipientID,
		Content:     cmd.Content,
	})
	if err != nil {
		return domain.Message{}, err
	}

	if err := s.dispatcher.PublishMessage(ctx, event.MessageSent{
		ID:          saved.ID,
		ChatID:      saved.ChatID,
		SenderID:    saved.SenderID,
		RecipientID: saved.RecipientID,
		Content:     saved.Content,
	}); err != nil {
		s.log.Warn("Message notification dropped", "message", saved.ID, "error", err)
	}
	return saved, nil
}

func (s *ChatService) MarkDelivered(ctx context.Context, chatID, recipientID uuid.UUID) ([]domain.Message, error) {
	return s.messages.MarkDelivered(ctx, chatID, recipientID)
}

func (s *ChatService) MarkRead(ctx context.Context, chatID, recipientID uuid.UUID) ([]domain.Message, error) {
	return s.messages.MarkRead(ctx, chatID, recipientID)
}

// Connect upserts the identity as ONLINE, flushes delivery acknowledgements
// that were pending while the user was away, and broadcasts the presence
// change. The flush and the broadcast are best-effort; the connect itself
// succeeds once the identity is persisted.
func (s *ChatService) Connect(ctx context.Context, cmd domain.ConnectCommand) (domain.User, error) {
	if err := cmd.Validate(); err != nil {
		return domain.User{}, err
	}

	user, err := s.users.SaveUser(ctx, cmd.UserID, cmd.Username, cmd.FirstName, cmd.LastName)
	if err != nil {
		return domain.User{}, err
	}

	if flushed, err := s.messages.MarkAllDeliveredForUser(ctx, cmd.UserID); err != nil {
		s.log.Warn("Pending delivery flush failed on connect", "user", cmd.UserID, "error", err)
	} else if len(flushed) > 0 {
		s.log.Info("Flushed pending deliveries on connect", "user", cmd.UserID, "count", len(flushed))
	}

	if err := s.dispatcher.PublishPresence(ctx, user); err != nil {
		s.log.Warn("Presence notification dropped", "user", user.ID, "error", err)
	}
	return user, nil
}

// Disconnect flips a known identity OFFLINE and broadcasts it. For an
// unknown user nothing is broadcast and found is false.
func (s *ChatService) Disconnect(ctx context.Context, userID uuid.UUID) (domain.User, bool, error) {
	user, found, err := s.users.Disconnect(ctx, userID)
	if err != nil || !found {
		return domain.User{}, false, err
	}
	if err := s.dispatcher.PublishPresence(ctx, user); err != nil {
		s.log.Warn("Presence notification dropped", "user", user.ID, "error", err)
	}
	return user, true, nil
}

func (s *ChatService) ListHistory(ctx context.Context, senderID, recipientID uuid.UUID) ([]domain.Message, error) {
	return s.messages.FindChatMessages(ctx, senderID, recipientID)
}

func (s *ChatService) ListOnline(ctx context.Context) ([]domain.User, error) {
	return s.users.FindConnectedUsers(ctx)
}

func (s *ChatService) UnreadCounts(ctx context.Context, recipientID uuid.UUID) (map[uuid.UUID]int, error) {
	return s.messages.UnreadCounts(ctx, recipientID)
}
