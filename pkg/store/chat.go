package store

import "time"

// Turn is a single message within a conversation. Turns are immutable once
// committed; a successful query always commits a user/assistant pair together.
type Turn struct {
	Role      string    `json:"role"` // RoleUser | RoleAssistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Passage is a retrieved snippet of corpus text with relevance attribution.
// Passages are transient: produced per query, never persisted by the chat core.
type Passage struct {
	Text        string  `json:"text"`
	SourceTitle string  `json:"title"`
	SourceURL   string  `json:"url"`
	Score       float64 `json:"score"`
}

// Source is the caller-facing attribution shape derived from a Passage.
type Source struct {
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ToSource maps a retrieved passage to its response attribution.
func (p Passage) ToSource() Source {
	return Source{Title: p.SourceTitle, URL: p.SourceURL, Score: p.Score}
}
