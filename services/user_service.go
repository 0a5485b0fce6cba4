//go:generate go run go.uber.org/mock/mockgen -source=user_service.go -destination=../mocks/mock_user_service.go -package=mocks
package services

import (
	"chat-core/domain"
	"chat-core/repositories"
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type IUserService interface {
	SaveUser(ctx context.Context, id uuid.UUID, username, firstName, lastName string) (domain.User, error)
	Disconnect(ctx context.Context, id uuid.UUID) (domain.User, bool, error)
	FindConnectedUsers(ctx context.Context) ([]domain.User, error)
}

// UserService owns the per-user identity and ONLINE/OFFLINE presence state.
type UserService struct {
	users repositories.IUserRepository
	log   *slog.Logger
}

func NewUserService(users repositories.IUserRepository, log *slog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// SaveUser upserts the identity record and flips it ONLINE. The returned
// record is what the caller broadcasts on the presence channel.
func (s *UserService) SaveUser(ctx context.Context, id uuid.UUID, username, firstName, lastName string) (domain.User, error) {
	user := domain.User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Status:    domain.StatusOnline,
	}
	if err := s.users.SaveUser(user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("User connected", "user", id, "username", username)
	return user, nil
}

// Disconnect flips a known identity OFFLINE. For an unknown user it returns
// found=false so the caller suppresses the presence broadcast.
func (s *UserService) Disconnect(ctx context.Context, id uuid.UUID) (domain.User, bool, error) {
	user, found, err := s.users.GetUser(id)
	if err != nil || !found {
		return domain.User{}, false, err
	}
	user.Status = domain.StatusOffline
	if err := s.users.SaveUser(user); err != nil {
		return domain.User{}, false, err
	}
	s.log.Info("User disconnected", "user", id)
	return user, true, nil
}

// FindConnectedUsers snapshots every identity currently ONLINE.
func (s *UserService) FindConnectedUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.FindAllByStatus(domain.StatusOnline)
}
