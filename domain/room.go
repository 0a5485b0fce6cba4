package domain

import (
	"github.com/google/uuid"
)

// chatNamespace seeds the name-based chat id derivation.
// Changing it changes every chat id, so it is frozen.
var chatNamespace = uuid.MustParse("8e5c9a4e-1b67-4f02-a0d3-6c21e3b5d9f4")

// ChatRoom is the membership record of one conversation. A single record
// keyed by the sorted participant pair represents the unordered pair, so
// lookup works from either side and concurrent creation cannot produce
// duplicate rows.
type ChatRoom struct {
	ChatID       uuid.UUID
	ParticipantA uuid.UUID
	ParticipantB uuid.UUID
}

// NewChatRoom builds the membership record for an unordered pair.
// Participants are stored in sorted order; the chat id is derived from the
// same order, so NewChatRoom(a, b) and NewChatRoom(b, a) are identical.
func NewChatRoom(a, b uuid.UUID) ChatRoom {
	lo, hi := SortPair(a, b)
	return ChatRoom{
		ChatID:       ChatIDFor(a, b),
		ParticipantA: lo,
		ParticipantB: hi,
	}
}

// ChatIDFor derives the deterministic, order-independent chat id for a
// participant pair: a name-based (SHA-1) UUID over "min|max" of the two
// identifiers. It is a pure function of the pair, stable across restarts,
// and never collides for distinct pairs in practice.
func ChatIDFor(a, b uuid.UUID) uuid.UUID {
	lo, hi := SortPair(a, b)
	return uuid.NewSHA1(chatNamespace, []byte(lo.String()+"|"+hi.String()))
}

// SortPair returns the two identifiers in a fixed canonical order.
func SortPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() <= b.String() {
		return a, b
	}
	return b, a
}
