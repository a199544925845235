// Package domain defines the core domain models for the chat engine.
package domain

// Role is the author of a persisted message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole maps a stored role string onto the closed Role set.
// The second return value is false for anything outside it.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, true
	case RoleAssistant:
		return RoleAssistant, true
	case RoleSystem:
		return RoleSystem, true
	default:
		return "", false
	}
}

// ChunkType is the output channel a stream fragment belongs to.
type ChunkType string

const (
	ChunkTypeThinking ChunkType = "thinking"
	ChunkTypeAnswer   ChunkType = "answer"
)

// SessionTypeChat is the session type used when none is given. Types are
// free-form tags such as "chat" or "pdf".
const SessionTypeChat = "chat"
