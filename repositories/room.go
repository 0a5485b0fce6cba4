//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	cerrors "chat-core/errors"
	"encoding/json"
	"errors"
	"fmt"

	"chat-core/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IRoomRepository interface {
	FindMembershipByPair(a, b uuid.UUID) (domain.ChatRoom, bool, error)
	CreateRoom(room domain.ChatRoom) error
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) RoomRepository {
	return RoomRepository{db: db}
}

// diskRoom is the stored form of a membership record.
type diskRoom struct {
	ChatID       uuid.UUID `json:"chat_id"`
	ParticipantA uuid.UUID `json:"participant_a"`
	ParticipantB uuid.UUID `json:"participant_b"`
}

// roomKey is "room:{min}|{max}" over the sorted pair, so both participants
// resolve the same key and the store enforces one record per unordered pair.
func roomKey(a, b uuid.UUID) []byte {
	lo, hi := domain.SortPair(a, b)
	return []byte(fmt.Sprintf("room:%s|%s", lo, hi))
}

// FindMembershipByPair looks up the membership record for an unordered pair.
// Absence is reported through the boolean, never as an error.
func (r RoomRepository) FindMembershipByPair(a, b uuid.UUID) (domain.ChatRoom, bool, error) {
	var disk diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(a, b))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.ChatRoom{}, false, nil
	}
	if err != nil {
		return domain.ChatRoom{}, false, err
	}
	return domain.ChatRoom{
		ChatID:       disk.ChatID,
		ParticipantA: disk.ParticipantA,
		ParticipantB: disk.ParticipantB,
	}, true, nil
}

// CreateRoom inserts the membership record for the pair. It returns
// ErrRoomAlreadyExists both when the record is already present and when a
// concurrent transaction won the insert race, so callers retry with a fresh
// lookup in either case.
func (r RoomRepository) CreateRoom(room domain.ChatRoom) error {
	data, err := json.Marshal(diskRoom{
		ChatID:       room.ChatID,
		ParticipantA: room.ParticipantA,
		ParticipantB: room.ParticipantB,
	})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	key := roomKey(room.ParticipantA, room.ParticipantB)
	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return cerrors.ErrRoomAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		return cerrors.ErrRoomAlreadyExists
	}
	return err
}
