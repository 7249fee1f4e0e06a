package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session history in process memory. Sessions are
// created lazily on first append and live for the process lifetime.
type MemoryStore struct {
	mu       sync.RWMutex
	max      int
	sessions map[string][]Exchange
}

// NewMemoryStore creates an in-memory store keeping at most max
// exchanges per session. A max of 0 or below selects DefaultMaxExchanges.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = DefaultMaxExchanges
	}
	return &MemoryStore{
		max:      max,
		sessions: map[string][]Exchange{},
	}
}

// Append records an exchange, evicting the oldest once the session is
// at its bound.
func (s *MemoryStore) Append(ctx context.Context, sessionID string, exchange Exchange) error {
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[sessionID], exchange)
	if len(history) > s.max {
		history = history[len(history)-s.max:]
	}
	s.sessions[sessionID] = history
	return nil
}

// Exchanges returns a copy of the session's history, oldest first.
// Unknown sessions yield an empty history.
func (s *MemoryStore) Exchanges(ctx context.Context, sessionID string) ([]Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[sessionID]
	out := make([]Exchange, len(history))
	copy(out, history)
	return out, nil
}

// Clear forgets the session.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}
