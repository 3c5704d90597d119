package dto

import (
	"time"

	"rag-chat-be/pkg/store"
)

type CreateSessionResponse struct {
	SessionId string `json:"session_id"`
	Message   string `json:"message"`
}

type SendMessageRequest struct {
	SessionId string `json:"session_id"` // Generated when empty
	Message   string `json:"message" validate:"required"`
}

type SendMessageResponse struct {
	SessionId string         `json:"session_id"`
	Response  string         `json:"response"`
	Sources   []store.Source `json:"sources"`
	Timestamp time.Time      `json:"timestamp"`
}

type GetHistoryResponse struct {
	SessionId string       `json:"session_id"`
	History   []store.Turn `json:"history"`
}

type ClearSessionResponse struct {
	SessionId string `json:"session_id"`
	Message   string `json:"message"`
}

type GetAllSessionsResponse struct {
	Sessions []string `json:"sessions"`
	Count    int      `json:"count"`
}

// ChatTurnPairMessage is the durable-log pipeline payload: one committed
// user/assistant pair, published after the session store write.
type ChatTurnPairMessage struct {
	SessionId string         `json:"session_id"`
	User      store.Turn     `json:"user"`
	Assistant store.Turn     `json:"assistant"`
	Sources   []store.Source `json:"sources,omitempty"`
}
