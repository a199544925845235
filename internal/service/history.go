package service

import (
	"context"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"go.uber.org/zap"
)

// LoadHistory returns up to n of the most recent messages of a session,
// oldest first. It never fails: a blank or unknown session, a non-positive
// n, or a store error all yield an empty history.
func (s *Service) LoadHistory(ctx context.Context, sessionID string, n int) []domain.HistoryMessage {
	if sessionID == "" || n <= 0 {
		return nil
	}

	messages, err := s.store.ListMessages(ctx, sessionID, n)
	if err != nil {
		s.logger.Warn("failed to load history, continuing without context",
			zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}

	history := make([]domain.HistoryMessage, 0, len(messages))
	for _, msg := range messages {
		role, ok := domain.ParseRole(string(msg.Role))
		if !ok {
			s.logger.Debug("skipping history message with unknown role",
				zap.String("session_id", sessionID), zap.String("message_id", msg.MessageID), zap.String("role", string(msg.Role)))
			continue
		}
		history = append(history, domain.HistoryMessage{Role: role, Content: msg.Content})
	}
	return history
}
