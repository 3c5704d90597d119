package prompt

import (
	"fmt"
	"strings"

	"rag-chat-be/pkg/store"
)

// ContextualBuilder assembles the generation prompt from retrieved passages,
// prior turns and the current query. Assembly is deterministic: passages keep
// their rank order, turns keep their conversational order. Reproducibility of
// this layout is part of the output contract.
type ContextualBuilder struct {
	passages []store.Passage
	history  []store.Turn
	query    string
}

// NewContextualBuilder creates a new contextual prompt builder
func NewContextualBuilder(passages []store.Passage, history []store.Turn, query string) *ContextualBuilder {
	return &ContextualBuilder{
		passages: passages,
		history:  history,
		query:    query,
	}
}

// Build creates the full prompt for a single query
func (b *ContextualBuilder) Build() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeContext(&prompt)
	b.writeHistory(&prompt)
	b.writeUserQuery(&prompt)

	return prompt.String()
}

func (b *ContextualBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("You are a helpful AI assistant with access to recent news articles. ")
	prompt.WriteString("Use the provided context to answer questions accurately. ")
	prompt.WriteString("If the context doesn't contain relevant information, say so clearly.\n\n")
}

func (b *ContextualBuilder) writeContext(prompt *strings.Builder) {
	prompt.WriteString("Context from news articles:\n")
	for i, p := range b.passages {
		prompt.WriteString(fmt.Sprintf("[%d] %s\nSource: %s\n\n", i+1, p.Text, p.SourceTitle))
	}
}

func (b *ContextualBuilder) writeHistory(prompt *strings.Builder) {
	prompt.WriteString("Previous conversation:\n")
	for _, turn := range b.history {
		prompt.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
	}
	prompt.WriteString("\n")
}

func (b *ContextualBuilder) writeUserQuery(prompt *strings.Builder) {
	prompt.WriteString("User query: ")
	prompt.WriteString(b.query)
	prompt.WriteString("\n\nProvide a concise, accurate answer based on the context. Cite sources when relevant.")
}
