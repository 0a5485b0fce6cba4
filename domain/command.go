package domain

import (
	"chat-core/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// SubmitMessageCommand carries one inbound message submission. Identifiers
// arrive already verified by the transport layer; validation here only
// rejects missing or malformed input before anything touches the store.
type SubmitMessageCommand struct {
	SenderID    uuid.UUID `validate:"required"`
	RecipientID uuid.UUID `validate:"required"`
	Content     string    `validate:"required,max=4096"`
}

func (c SubmitMessageCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidCommand, err)
	}
	return nil
}

// ConnectCommand announces a participant coming online, with the profile
// fields the caller extracted from its verified token.
type ConnectCommand struct {
	UserID    uuid.UUID `validate:"required"`
	Username  string    `validate:"required,max=255"`
	FirstName string    `validate:"max=255"`
	LastName  string    `validate:"max=255"`
}

func (c ConnectCommand) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidCommand, err)
	}
	return nil
}
