package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "CHAT_TURN_COMMITTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent helps embed common logic if needed.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewTurnCommittedEvent announces a committed user/assistant turn pair on a
// session. Consumed by external systems; the durable-log pipeline has its own
// channel and does not depend on this event.
func NewTurnCommittedEvent(sessionID, query, answer string) Event {
	return BaseEvent{
		Type: "CHAT_TURN_COMMITTED",
		Data: map[string]interface{}{
			"session_id": sessionID,
			"query":      query,
			"answer":     answer,
		},
		OccurredAt: time.Now(),
	}
}
