// Package session keeps per-session history of completed exchanges, so
// follow-up questions carry their conversational context. Every store
// enforces a FIFO bound: appending beyond the limit evicts the oldest
// exchange.
package session

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultMaxExchanges bounds how many prior exchanges a session keeps.
const DefaultMaxExchanges = 2

// Exchange is one completed question/answer pair.
type Exchange struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists session history.
type Store interface {
	// Append records a completed exchange, evicting the oldest entries
	// beyond the store's bound.
	Append(ctx context.Context, sessionID string, exchange Exchange) error
	// Exchanges returns the retained history, oldest first.
	Exchanges(ctx context.Context, sessionID string) ([]Exchange, error)
	// Clear forgets the session entirely.
	Clear(ctx context.Context, sessionID string) error
}

// NewSessionID mints a sortable unique session identifier.
func NewSessionID() string {
	return ulid.Make().String()
}
