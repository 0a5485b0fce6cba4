//go:generate go run go.uber.org/mock/mockgen -source=room_service.go -destination=../mocks/mock_room_service.go -package=mocks
package services

import (
	"chat-core/domain"
	cerrors "chat-core/errors"
	"chat-core/repositories"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// roomCreateAttempts bounds the lookup/insert loop when two participants
// race on creating the same room.
const roomCreateAttempts = 3

type IChatRoomService interface {
	GetChatRoomID(ctx context.Context, senderID, recipientID uuid.UUID, createIfAbsent bool) (uuid.UUID, bool, error)
}

// ChatRoomService resolves the canonical chat room of an unordered
// participant pair.
type ChatRoomService struct {
	rooms repositories.IRoomRepository
	log   *slog.Logger
}

func NewChatRoomService(rooms repositories.IRoomRepository, log *slog.Logger) *ChatRoomService {
	return &ChatRoomService{rooms: rooms, log: log}
}

// GetChatRoomID returns the chat id of the pair. When no membership record
// exists and createIfAbsent is false it returns (Nil, false, nil) with no
// side effect. Otherwise it derives the deterministic chat id and inserts
// the record. Because the chat id is a pure function of the pair, a
// concurrent creation by the other participant agrees on the value; the
// insert conflict is resolved by retrying the lookup, bounded at
// roomCreateAttempts, before surfacing ErrRoomResolution.
func (s *ChatRoomService) GetChatRoomID(ctx context.Context, senderID, recipientID uuid.UUID, createIfAbsent bool) (uuid.UUID, bool, error) {
	if senderID == uuid.Nil || recipientID == uuid.Nil {
		return uuid.Nil, false, fmt.Errorf("%w: nil participant", cerrors.ErrInvalidCommand)
	}

	for attempt := 0; attempt < roomCreateAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return uuid.Nil, false, err
		}

		room, found, err := s.rooms.FindMembershipByPair(senderID, recipientID)
		if err != nil {
			return uuid.Nil, false, err
		}
		if found {
			return room.ChatID, true, nil
		}
		if !createIfAbsent {
			return uuid.Nil, false, nil
		}

		room = domain.NewChatRoom(senderID, recipientID)
		err = s.rooms.CreateRoom(room)
		if err == nil {
			s.log.Info("Created chat room", "chat", room.ChatID, "participantA", room.ParticipantA, "participantB", room.ParticipantB)
			return room.ChatID, true, nil
		}
		if !errors.Is(err, cerrors.ErrRoomAlreadyExists) {
			return uuid.Nil, false, err
		}
		// Lost the creation race: loop back to a fresh lookup.
	}

	return uuid.Nil, false, fmt.Errorf("%w for %s and %s", cerrors.ErrRoomResolution, senderID, recipientID)
}
