package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"github.com/Hazehacker/Haze-AI-Hub/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// CreateActiveSession inserts an active chat session owned by "u1".
func CreateActiveSession(t *testing.T, s repository.Store, sessionID string) *domain.Session {
	t.Helper()

	now := time.Now().UTC()
	session := &domain.Session{
		SessionID:    sessionID,
		UserID:       "u1",
		Type:         domain.SessionTypeChat,
		Active:       true,
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return session
}
