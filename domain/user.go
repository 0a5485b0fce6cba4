package domain

import (
	"github.com/google/uuid"
)

// User is the identity and presence record of a participant.
// Profile fields come from the caller's already-verified token context;
// the core never parses tokens itself.
type User struct {
	ID        uuid.UUID
	Username  string
	FirstName string
	LastName  string
	Status    UserStatus
}
