package runtime

import (
	"chat-core/contract"
	"sync"

	"github.com/google/uuid"
)

// Registry tracks the active session of each connected user. Each user has
// one addressable sink (the private channel of the notification contract);
// the set of all sessions doubles as the shared presence channel.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]contract.EventSink)}
}

// Subscribe registers a user's active connection, replacing any previous
// session for the same user.
func (r *Registry) Subscribe(userID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = sink
}

// Unsubscribe removes the user's session so no further events reach it.
func (r *Registry) Unsubscribe(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
}

// SinkFor resolves the private channel of one user.
// Returns nil, false when the user has no active session.
func (r *Registry) SinkFor(userID uuid.UUID) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[userID]
	return sink, ok
}

// Snapshot returns the sinks of every active session, for broadcasts.
func (r *Registry) Snapshot() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sinks := make([]contract.EventSink, 0, len(r.sessions))
	for _, sink := range r.sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}
