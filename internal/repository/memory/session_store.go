package memory

import (
	"context"
	"time"

	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionStore is the in-process SessionStore used when redis is not
// configured, and by tests. Expired entries are purged in the background.
type SessionStore struct {
	cache *cache.Cache
}

var _ contract.SessionStore = &SessionStore{}

func NewSessionStore(defaultTTL time.Duration) *SessionStore {
	return &SessionStore{
		cache: cache.New(defaultTTL, 10*time.Minute),
	}
}

func (s *SessionStore) Read(ctx context.Context, sessionID string) ([]store.Turn, error) {
	if x, found := s.cache.Get(sessionID); found {
		return x.([]store.Turn), nil
	}
	return []store.Turn{}, nil
}

func (s *SessionStore) AppendPair(ctx context.Context, sessionID string, user, assistant store.Turn, ttl time.Duration) error {
	existing, _ := s.Read(ctx, sessionID)

	// Copy so concurrent readers of the previous slice never observe the
	// appended turns through a shared backing array.
	turns := make([]store.Turn, 0, len(existing)+2)
	turns = append(turns, existing...)
	turns = append(turns, user, assistant)

	s.cache.Set(sessionID, turns, ttl)
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

func (s *SessionStore) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	if x, found := s.cache.Get(sessionID); found {
		s.cache.Set(sessionID, x, ttl)
	}
	return nil
}

func (s *SessionStore) ListActiveSessionIDs(ctx context.Context) ([]string, error) {
	items := s.cache.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	return ids, nil
}
