package memory

import (
	"context"
	"sync"

	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/store"
)

// ChatLogRepository keeps the durable turn log in process memory when
// Postgres is disabled. Log contents do not survive a restart.
type ChatLogRepository struct {
	mu    sync.RWMutex
	turns map[string][]store.Turn
}

var _ contract.ChatLogRepository = &ChatLogRepository{}

func NewChatLogRepository() *ChatLogRepository {
	return &ChatLogRepository{
		turns: make(map[string][]store.Turn),
	}
}

func (r *ChatLogRepository) AppendTurn(ctx context.Context, sessionID string, turn store.Turn, sources []store.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turns[sessionID] = append(r.turns[sessionID], turn)
	return nil
}

func (r *ChatLogRepository) History(ctx context.Context, sessionID string) ([]store.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	logged := r.turns[sessionID]
	out := make([]store.Turn, len(logged))
	copy(out, logged)
	return out, nil
}

func (r *ChatLogRepository) DeleteSession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.turns, sessionID)
	return nil
}
