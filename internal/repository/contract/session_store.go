package contract

import (
	"context"
	"time"

	"rag-chat-be/pkg/store"
)

// SessionStore holds the ordered turn history of each conversation. It is the
// single source of truth for "what has been said so far" during a query.
//
// Unknown session ids are not errors: Read returns an empty slice and Clear
// succeeds silently. Every read or write refreshes the session's expiry.
type SessionStore interface {
	// Read returns the session's turns in conversational order. An
	// unreachable store returns an error; callers degrade to an empty
	// history rather than failing the query.
	Read(ctx context.Context, sessionID string) ([]store.Turn, error)

	// AppendPair appends a user/assistant turn pair atomically: no reader
	// ever observes the user turn without its paired assistant turn.
	AppendPair(ctx context.Context, sessionID string, user, assistant store.Turn, ttl time.Duration) error

	// Clear removes the session. Idempotent.
	Clear(ctx context.Context, sessionID string) error

	// Touch extends the session's expiry without modifying it.
	Touch(ctx context.Context, sessionID string, ttl time.Duration) error

	// ListActiveSessionIDs enumerates sessions that have not expired.
	// Best-effort.
	ListActiveSessionIDs(ctx context.Context) ([]string, error)
}
