// Package domain contains core concepts of the chat system.
// This file defines Message entities and the delivery lifecycle rules.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one chat message between two participants.
// DeliveredAt and ReadAt stay nil until the corresponding transition applies.
type Message struct {
	ID          uuid.UUID
	ChatID      uuid.UUID
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Content     string
	Status      MessageStatus
	SentAt      time.Time
	DeliveredAt *time.Time
	ReadAt      *time.Time
}

// ApplyDelivered advances a SENT message to DELIVERED at the given time.
// It reports whether the transition applied: a message already DELIVERED
// or READ is left untouched, so a late delivery acknowledgement can never
// overwrite a READ message.
func (m *Message) ApplyDelivered(at time.Time) bool {
	if m.Status.Rank() >= StatusDelivered.Rank() {
		return false
	}
	m.Status = StatusDelivered
	m.DeliveredAt = &at
	return true
}

// ApplyRead advances a SENT or DELIVERED message to READ at the given time.
// When the delivered step was skipped, DeliveredAt is backfilled to the read
// time so a READ message always carries a delivery timestamp.
func (m *Message) ApplyRead(at time.Time) bool {
	if m.Status.Rank() >= StatusRead.Rank() {
		return false
	}
	if m.DeliveredAt == nil {
		m.DeliveredAt = &at
	}
	m.Status = StatusRead
	m.ReadAt = &at
	return true
}
