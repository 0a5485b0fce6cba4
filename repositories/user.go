//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"

	"chat-core/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	SaveUser(user domain.User) error
	GetUser(id uuid.UUID) (domain.User, bool, error)
	FindAllByStatus(status domain.UserStatus) ([]domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

// diskUser is the stored form of an identity/presence record.
type diskUser struct {
	ID        uuid.UUID         `json:"id"`
	Username  string            `json:"username"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Status    domain.UserStatus `json:"status"`
}

func userKey(id uuid.UUID) []byte {
	return []byte("user:" + id.String())
}

// SaveUser upserts the record under "user:{id}".
func (u UserRepository) SaveUser(user domain.User) error {
	data, err := json.Marshal(diskUser{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Status:    user.Status,
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		return txn.Set(userKey(user.ID), data)
	})
}

// GetUser retrieves one record; absence is reported through the boolean.
func (u UserRepository) GetUser(id uuid.UUID) (domain.User, bool, error) {
	var disk diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return toUser(disk), true, nil
}

// FindAllByStatus scans the user namespace and keeps matching records.
func (u UserRepository) FindAllByStatus(status domain.UserStatus) ([]domain.User, error) {
	var users []domain.User
	prefix := []byte("user:")
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskUser
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &disk)
			})
			if err != nil {
				return err
			}
			if disk.Status == status {
				users = append(users, toUser(disk))
			}
		}
		return nil
	})
	return users, err
}

func toUser(disk diskUser) domain.User {
	return domain.User{
		ID:        disk.ID,
		Username:  disk.Username,
		FirstName: disk.FirstName,
		LastName:  disk.LastName,
		Status:    disk.Status,
	}
}
