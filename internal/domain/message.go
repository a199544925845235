package domain

import (
	"encoding/json"
	"time"
)

// Message is a persisted conversational message. Messages are never updated
// after insert.
type Message struct {
	MessageID string           `json:"message_id"`
	SessionID string           `json:"session_id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// MessageMetadata carries the optional assistant-side details of a turn.
// It is stored as a generic JSON object.
type MessageMetadata struct {
	Model           string `json:"model,omitempty"`
	EnableThinking  *bool  `json:"enable_thinking,omitempty"`
	ThinkingBudget  *int   `json:"thinking_budget,omitempty"`
	ThinkingContent string `json:"thinking_content,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m *MessageMetadata) IsZero() bool {
	return m == nil || (m.Model == "" && m.EnableThinking == nil && m.ThinkingBudget == nil && m.ThinkingContent == "")
}

// MarshalDocument serializes the metadata into the stored JSON document.
// A zero record is stored as NULL.
func (m *MessageMetadata) MarshalDocument() ([]byte, error) {
	if m.IsZero() {
		return nil, nil
	}
	return json.Marshal(m)
}

// UnmarshalMetadataDocument decodes a stored JSON document. Unknown keys are
// ignored so the stored schema can grow without breaking readers.
func UnmarshalMetadataDocument(doc []byte) (*MessageMetadata, error) {
	if len(doc) == 0 || string(doc) == "null" {
		return nil, nil
	}
	var m MessageMetadata
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// HistoryMessage is a role/content pair sent upstream as prior context.
type HistoryMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
