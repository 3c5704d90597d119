package contract

import (
	"context"

	"rag-chat-be/pkg/store"
)

// ChatLogRepository is the durable, append-only record of committed turns.
// Writes are best-effort from the orchestrator's viewpoint: failures are
// logged, never surfaced, and the session cache is not derived from this log.
type ChatLogRepository interface {
	// AppendTurn persists one turn row, creating the session row on first
	// use. Sources attribution accompanies assistant turns only.
	AppendTurn(ctx context.Context, sessionID string, turn store.Turn, sources []store.Source) error

	// History returns the logged turns for a session in commit order.
	History(ctx context.Context, sessionID string) ([]store.Turn, error)

	// DeleteSession removes the session row and, by cascade, its messages.
	DeleteSession(ctx context.Context, sessionID string) error
}
