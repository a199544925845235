package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"github.com/Hazehacker/Haze-AI-Hub/internal/repository"
)

// CreateSession starts a new active session. The type is stored as given;
// an empty type defaults to chat.
func (s *Service) CreateSession(ctx context.Context, userID, sessionType, title string) (*domain.Session, error) {
	if sessionType == "" {
		sessionType = domain.SessionTypeChat
	}

	now := s.now()
	session := &domain.Session{
		SessionID:    s.newID(),
		UserID:       userID,
		Type:         sessionType,
		Title:        title,
		Active:       true,
		LastActiveAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession returns an active session.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil || !session.Active {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession logically deletes a session. Its messages are kept.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	err := s.store.DeactivateSession(ctx, sessionID, s.now())
	if errors.Is(err, repository.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
