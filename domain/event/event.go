package event

import (
	"chat-core/domain"

	"github.com/google/uuid"
)

// DomainEvent is a notification produced after a durable state change.
// Delivery is best-effort: no ordering, durability, or retry guarantees.
type DomainEvent interface {
	// Broadcast reports whether the event targets every connected session
	// instead of a single recipient.
	Broadcast() bool
}

// MessageSent notifies a recipient's private channel about a new message.
type MessageSent struct {
	ID          uuid.UUID
	ChatID      uuid.UUID
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Content     string
}

func (MessageSent) Broadcast() bool { return false }

// PresenceChanged announces an ONLINE/OFFLINE flip on the shared channel.
type PresenceChanged struct {
	User domain.User
}

func (PresenceChanged) Broadcast() bool { return true }
