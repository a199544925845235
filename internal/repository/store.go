// Package repository defines the chat storage interface and its SQLite
// implementation.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
)

// ErrSessionNotFound is returned when a session does not exist or has been
// logically deleted.
var ErrSessionNotFound = errors.New("session not found")

// Store defines the interface for data persistence.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	DeactivateSession(ctx context.Context, sessionID string, at time.Time) error

	// Message operations
	ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// PersistTurn touches the session and inserts the user and assistant
	// messages of one turn in a single transaction.
	PersistTurn(ctx context.Context, turn *Turn) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

// Turn is one completed exchange ready to be written.
type Turn struct {
	SessionID string
	User      *domain.Message
	Assistant *domain.Message
	At        time.Time
}
