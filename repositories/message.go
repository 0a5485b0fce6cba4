//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chat-core/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// transitionAttempts bounds optimistic retries when two acknowledgements
// race on the same message.
const transitionAttempts = 3

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	FindByChatID(chatID uuid.UUID) ([]DiskMessage, error)
	FindByChatIDAndRecipientAndStatus(chatID, recipientID uuid.UUID, status domain.MessageStatus) ([]DiskMessage, error)
	FindByChatIDAndRecipientAndStatusIn(chatID, recipientID uuid.UUID, statuses []domain.MessageStatus) ([]DiskMessage, error)
	FindByRecipientAndStatus(recipientID uuid.UUID, status domain.MessageStatus) ([]DiskMessage, error)
	FindByRecipientAndStatusIn(recipientID uuid.UUID, statuses []domain.MessageStatus) ([]DiskMessage, error)
	TransitionDelivered(message DiskMessage, at time.Time) (DiskMessage, bool, error)
	TransitionRead(message DiskMessage, at time.Time) (DiskMessage, bool, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the stored form of a message.
type DiskMessage struct {
	ID          uuid.UUID            `json:"id"`
	ChatID      uuid.UUID            `json:"chat_id"`
	SenderID    uuid.UUID            `json:"sender_id"`
	RecipientID uuid.UUID            `json:"recipient_id"`
	Content     string               `json:"content"`
	Status      domain.MessageStatus `json:"status"`
	SentAt      time.Time            `json:"sent_at"`
	DeliveredAt *time.Time           `json:"delivered_at,omitempty"`
	ReadAt      *time.Time           `json:"read_at,omitempty"`
}

// messageKey is "msg:{chat_id}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding makes lexicographical order chronological,
//     so a forward prefix scan returns a chat's history sorted by SentAt.
//  2. The UUID acts as a collision disconnector if two messages arrive
//     at the same nanosecond.
//
// Chat id, send time, and message id never change, so lifecycle updates
// rewrite the value under the same key.
func messageKey(chatID uuid.UUID, sentAt time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", chatID, sentAt.UnixNano(), id))
}

// inboxKey is the recipient-side index "inbox:{recipient}:{chat_id}:{timestamp_padded}:{uuid}".
// Its value is the primary message key, which delivery, read, and unread
// scans resolve without touching other recipients' messages.
func inboxKey(recipientID, chatID uuid.UUID, sentAt time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("inbox:%s:%s:%019d:%s", recipientID, chatID, sentAt.UnixNano(), id))
}

// StoreMessage persists a message and its inbox index entry in one transaction.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	primary := messageKey(message.ChatID, message.SentAt, message.ID)
	index := inboxKey(message.RecipientID, message.ChatID, message.SentAt, message.ID)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primary, data); err != nil {
			return err
		}
		return txn.Set(index, primary)
	})
}

// FindByChatID retrieves all messages of a chat using a prefix scan.
// Thanks to the padded timestamp in the key, messages come back sorted by
// send time ascending. It stops once the configured limitMessages is reached.
func (m MessageRepository) FindByChatID(chatID uuid.UUID) ([]DiskMessage, error) {
	var messages []DiskMessage
	prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d messages reached", *m.limitMessages))
				break
			}
			var message DiskMessage
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			})
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	return messages, err
}

func (m MessageRepository) FindByChatIDAndRecipientAndStatus(chatID, recipientID uuid.UUID, status domain.MessageStatus) ([]DiskMessage, error) {
	return m.FindByChatIDAndRecipientAndStatusIn(chatID, recipientID, []domain.MessageStatus{status})
}

// FindByChatIDAndRecipientAndStatusIn scans the recipient's inbox index for
// one chat and keeps the messages currently in one of the given statuses.
func (m MessageRepository) FindByChatIDAndRecipientAndStatusIn(chatID, recipientID uuid.UUID, statuses []domain.MessageStatus) ([]DiskMessage, error) {
	prefix := []byte(fmt.Sprintf("inbox:%s:%s:", recipientID, chatID))
	return m.scanInbox(prefix, statuses)
}

func (m MessageRepository) FindByRecipientAndStatus(recipientID uuid.UUID, status domain.MessageStatus) ([]DiskMessage, error) {
	return m.FindByRecipientAndStatusIn(recipientID, []domain.MessageStatus{status})
}

// FindByRecipientAndStatusIn scans the recipient's whole inbox index across
// chats, used for reconnect flushes and unread aggregation.
func (m MessageRepository) FindByRecipientAndStatusIn(recipientID uuid.UUID, statuses []domain.MessageStatus) ([]DiskMessage, error) {
	prefix := []byte(fmt.Sprintf("inbox:%s:", recipientID))
	return m.scanInbox(prefix, statuses)
}

func (m MessageRepository) scanInbox(prefix []byte, statuses []domain.MessageStatus) ([]DiskMessage, error) {
	var messages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var primary []byte
			err := it.Item().Value(func(val []byte) error {
				primary = append([]byte(nil), val...)
				return nil
			})
			if err != nil {
				return err
			}
			item, err := txn.Get(primary)
			if err != nil {
				return fmt.Errorf("dangling inbox entry %s: %w", it.Item().Key(), err)
			}
			var message DiskMessage
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			})
			if err != nil {
				return err
			}
			if lo.Contains(statuses, message.Status) {
				messages = append(messages, message)
			}
		}
		return nil
	})
	return messages, err
}

// TransitionDelivered atomically advances one message to DELIVERED.
// The current value is re-read inside the transaction and the domain rule
// decides whether the transition applies, so a message that concurrently
// reached READ is left untouched. The boolean reports whether it applied.
func (m MessageRepository) TransitionDelivered(message DiskMessage, at time.Time) (DiskMessage, bool, error) {
	return m.transition(message, func(msg *domain.Message) bool {
		return msg.ApplyDelivered(at)
	})
}

// TransitionRead atomically advances one message to READ, backfilling the
// delivery timestamp when the delivered step was skipped.
func (m MessageRepository) TransitionRead(message DiskMessage, at time.Time) (DiskMessage, bool, error) {
	return m.transition(message, func(msg *domain.Message) bool {
		return msg.ApplyRead(at)
	})
}

// transition runs an atomic read-modify-write on one message. Concurrent
// transactions on the same key surface as badger conflicts; those are
// retried a bounded number of times against the fresh value.
func (m MessageRepository) transition(message DiskMessage, apply func(*domain.Message) bool) (DiskMessage, bool, error) {
	key := messageKey(message.ChatID, message.SentAt, message.ID)
	var updated DiskMessage
	var applied bool

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		err := m.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			var current DiskMessage
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &current)
			})
			if err != nil {
				return err
			}

			msg := toMessage(current)
			applied = apply(&msg)
			updated = toDiskMessage(msg)
			if !applied {
				return nil
			}

			data, err := json.Marshal(updated)
			if err != nil {
				return fmt.Errorf("marshal failed: %w", err)
			}
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			m.log.Debug("Concurrent transition on message, retrying", "message", message.ID)
			continue
		}
		if err != nil {
			return DiskMessage{}, false, err
		}
		return updated, applied, nil
	}
	return DiskMessage{}, false, badger.ErrConflict
}

func toMessage(message DiskMessage) domain.Message {
	return domain.Message{
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

func toDiskMessage(message domain.Message) DiskMessage {
	return DiskMessage{
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
