package ws

import "github.com/Hazehacker/Haze-AI-Hub/internal/domain"

// Message types from client to server
const (
	TypeChat   = "chat"
	TypeCancel = "cancel"
)

// Message types from server to client
const (
	TypeChunk = "chunk"
	TypeDone  = "done"
	TypeError = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatMessage is sent by the client to start a turn.
type ChatMessage struct {
	BaseMessage
	Prompt         string `json:"prompt"`
	EnableThinking bool   `json:"enable_thinking"`
	ThinkingBudget *int   `json:"thinking_budget,omitempty"`
}

// CancelMessage is sent by the client to stop the running turn.
type CancelMessage struct {
	BaseMessage
}

// ChunkMessage carries one classified fragment of the answer.
type ChunkMessage struct {
	BaseMessage
	Chunk domain.StreamChunk `json:"chunk"`
}

// DoneMessage ends a turn that streamed to completion.
type DoneMessage struct {
	BaseMessage
	Persisted    bool   `json:"persisted"`
	PersistError string `json:"persist_error,omitempty"`
	Empty        bool   `json:"empty,omitempty"`
}

// ErrorMessage is sent when a message is rejected or a turn fails.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage = "invalid_message"
	ErrorCodeBusy           = "busy"
	ErrorCodeCanceled       = "canceled"
	ErrorCodeUpstream       = "upstream_error"
	ErrorCodeInternalError  = "internal_error"
)
