package service

import (
	"context"
	"fmt"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
)

// GetMessages lists the stored messages of an active session, oldest first.
// A positive limit keeps only the most recent messages.
func (s *Service) GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}
