package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-be/pkg/store"
)

func TestSessionStore_ReadUnknownSession(t *testing.T) {
	s := NewSessionStore(time.Hour)

	turns, err := s.Read(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSessionStore_AppendPair(t *testing.T) {
	s := NewSessionStore(time.Hour)
	ctx := context.Background()

	user := store.Turn{Role: store.RoleUser, Content: "q1"}
	assistant := store.Turn{Role: store.RoleAssistant, Content: "a1"}
	require.NoError(t, s.AppendPair(ctx, "s1", user, assistant, time.Hour))

	turns, err := s.Read(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Content)
	assert.Equal(t, "a1", turns[1].Content)

	// Second pair lands after the first.
	require.NoError(t, s.AppendPair(ctx, "s1",
		store.Turn{Role: store.RoleUser, Content: "q2"},
		store.Turn{Role: store.RoleAssistant, Content: "a2"},
		time.Hour))

	turns, err = s.Read(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, "q2", turns[2].Content)
}

func TestSessionStore_AppendDoesNotMutatePriorRead(t *testing.T) {
	s := NewSessionStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.AppendPair(ctx, "s1",
		store.Turn{Role: store.RoleUser, Content: "q1"},
		store.Turn{Role: store.RoleAssistant, Content: "a1"},
		time.Hour))

	before, err := s.Read(ctx, "s1")
	require.NoError(t, err)

	require.NoError(t, s.AppendPair(ctx, "s1",
		store.Turn{Role: store.RoleUser, Content: "q2"},
		store.Turn{Role: store.RoleAssistant, Content: "a2"},
		time.Hour))

	// The slice handed out earlier keeps its length and contents.
	assert.Len(t, before, 2)
	assert.Equal(t, "a1", before[1].Content)
}

func TestSessionStore_Clear(t *testing.T) {
	s := NewSessionStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.AppendPair(ctx, "s1",
		store.Turn{Role: store.RoleUser, Content: "q"},
		store.Turn{Role: store.RoleAssistant, Content: "a"},
		time.Hour))

	require.NoError(t, s.Clear(ctx, "s1"))
	turns, err := s.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)

	// Clearing an absent session is fine.
	require.NoError(t, s.Clear(ctx, "s1"))
}

func TestSessionStore_TTLExpiry(t *testing.T) {
	s := NewSessionStore(time.Hour)
	ctx := context.Background()

	require.NoError(t, s.AppendPair(ctx, "s1",
		store.Turn{Role: store.RoleUser, Content: "q"},
		store.Turn{Role: store.RoleAssistant, Content: "a"},
		20*time.Millisecond))

	time.Sleep(40 * time.Millisecond)

	turns, err := s.Read(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSessionStore_ListActiveSessionIDs(t *testing.T) {
	s := NewSessionStore(time.Hour)
	ctx := context.Background()

	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, s.AppendPair(ctx, id,
			store.Turn{Role: store.RoleUser, Content: "q"},
			store.Turn{Role: store.RoleAssistant, Content: "a"},
			time.Hour))
	}

	ids, err := s.ListActiveSessionIDs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)
}
