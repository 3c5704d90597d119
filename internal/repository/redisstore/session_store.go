package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionStore keeps each conversation as a single JSON-encoded turn list
// under session:<id> with a refreshing TTL. Writing the whole list in one SET
// is what makes the user/assistant pair append atomic for readers.
type SessionStore struct {
	rdb *redis.Client
}

var _ contract.SessionStore = &SessionStore{}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (s *SessionStore) Read(ctx context.Context, sessionID string) ([]store.Turn, error) {
	data, err := s.rdb.Get(ctx, sessionKey(sessionID)).Result()
	if err == redis.Nil {
		return []store.Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session read: %w", err)
	}

	var turns []store.Turn
	if err := json.Unmarshal([]byte(data), &turns); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return turns, nil
}

func (s *SessionStore) AppendPair(ctx context.Context, sessionID string, user, assistant store.Turn, ttl time.Duration) error {
	turns, err := s.Read(ctx, sessionID)
	if err != nil {
		return err
	}

	turns = append(turns, user, assistant)

	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}

	if err := s.rdb.Set(ctx, sessionKey(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("session write: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

func (s *SessionStore) Touch(ctx context.Context, sessionID string, ttl time.Duration) error {
	// EXPIRE on a missing key is a no-op, which matches "unknown session
	// behaves as empty".
	if err := s.rdb.Expire(ctx, sessionKey(sessionID), ttl).Err(); err != nil {
		return fmt.Errorf("session touch: %w", err)
	}
	return nil
}

func (s *SessionStore) ListActiveSessionIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.rdb.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(sessionKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("session scan: %w", err)
	}
	return ids, nil
}
