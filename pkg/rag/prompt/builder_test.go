package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"rag-chat-be/pkg/store"
)

func TestContextualBuilder_Ordering(t *testing.T) {
	passages := []store.Passage{
		{Text: "first passage", SourceTitle: "Article A", Score: 0.9},
		{Text: "second passage", SourceTitle: "Article B", Score: 0.8},
	}
	history := []store.Turn{
		{Role: store.RoleUser, Content: "earlier question"},
		{Role: store.RoleAssistant, Content: "earlier answer"},
	}

	prompt := NewContextualBuilder(passages, history, "current question").Build()

	// Passages appear numbered in rank order.
	assert.Contains(t, prompt, "[1] first passage\nSource: Article A")
	assert.Contains(t, prompt, "[2] second passage\nSource: Article B")
	assert.Less(t, strings.Index(prompt, "[1]"), strings.Index(prompt, "[2]"))

	// History appears in conversational order between context and query.
	assert.Contains(t, prompt, "user: earlier question\nassistant: earlier answer")
	assert.Less(t, strings.Index(prompt, "Context from news articles:"), strings.Index(prompt, "Previous conversation:"))
	assert.Less(t, strings.Index(prompt, "Previous conversation:"), strings.Index(prompt, "User query: current question"))
}

func TestContextualBuilder_Deterministic(t *testing.T) {
	passages := []store.Passage{{Text: "p", SourceTitle: "s"}}
	history := []store.Turn{{Role: store.RoleUser, Content: "q"}}

	a := NewContextualBuilder(passages, history, "query").Build()
	b := NewContextualBuilder(passages, history, "query").Build()
	assert.Equal(t, a, b)
}

func TestContextualBuilder_EmptyInputs(t *testing.T) {
	prompt := NewContextualBuilder(nil, nil, "lone question").Build()

	// Section headers survive even with nothing to put under them.
	assert.Contains(t, prompt, "Context from news articles:")
	assert.Contains(t, prompt, "Previous conversation:")
	assert.Contains(t, prompt, "User query: lone question")
}
