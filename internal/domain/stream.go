package domain

// StreamChunk is one classified fragment of upstream output. Chunks are never
// stored individually.
type StreamChunk struct {
	Type    ChunkType `json:"type"`
	Content string    `json:"content"`
}

// RequestOptions controls the reasoning behaviour of a single turn.
type RequestOptions struct {
	EnableThinking bool `json:"enable_thinking"`
	// ThinkingBudget bounds the reasoning tokens; nil or non-positive means unbounded.
	ThinkingBudget *int `json:"thinking_budget,omitempty"`
}

// TurnRequest is the validated input of one chat turn.
type TurnRequest struct {
	SessionID string
	Message   string
	Options   RequestOptions
}
