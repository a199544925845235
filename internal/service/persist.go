package service

import (
	"context"
	"errors"
	"time"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"github.com/Hazehacker/Haze-AI-Hub/internal/observability"
	"github.com/Hazehacker/Haze-AI-Hub/internal/repository"
	"github.com/Hazehacker/Haze-AI-Hub/internal/stream"
	"go.uber.org/zap"
)

const persistTimeout = 10 * time.Second

// assistantMetadata builds the metadata stored with the assistant message.
func assistantMetadata(model string, opts domain.RequestOptions, thinking string) *domain.MessageMetadata {
	meta := &domain.MessageMetadata{Model: model}
	if opts.EnableThinking {
		enabled := true
		meta.EnableThinking = &enabled
		if opts.ThinkingBudget != nil {
			budget := *opts.ThinkingBudget
			meta.ThinkingBudget = &budget
		}
		meta.ThinkingContent = thinking
	}
	return meta
}

// persistTurn writes the user message and the accumulated answer of a
// completed turn. It runs detached from ctx cancellation: by the time it is
// called the client already has the whole answer.
func (s *Service) persistTurn(ctx context.Context, req domain.TurnRequest, opts domain.RequestOptions, acc *stream.Accumulator, result *TurnResult, logger *zap.Logger) {
	if req.SessionID == "" {
		result.PersistErr = ErrSessionNotFound
		s.metrics.RecordPersist(observability.PersistSessionNotFound)
		logger.Warn("no session id, turn not persisted")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	turn := &repository.Turn{
		SessionID: req.SessionID,
		User: &domain.Message{
			MessageID: s.newID(),
			SessionID: req.SessionID,
			Role:      domain.RoleUser,
			Content:   req.Message,
		},
		Assistant: &domain.Message{
			MessageID: s.newID(),
			SessionID: req.SessionID,
			Role:      domain.RoleAssistant,
			Content:   acc.Answer(),
			Metadata:  assistantMetadata(s.config.LLM.Model, opts, acc.Thinking()),
		},
		At: s.now(),
	}

	err := s.store.PersistTurn(ctx, turn)
	switch {
	case err == nil:
		result.Persisted = true
		result.UserMessageID = turn.User.MessageID
		result.AssistantMessageID = turn.Assistant.MessageID
		s.metrics.RecordPersist(observability.PersistOK)
		logger.Debug("turn persisted", zap.String("assistant_message_id", turn.Assistant.MessageID))
	case errors.Is(err, repository.ErrSessionNotFound):
		result.PersistErr = err
		s.metrics.RecordPersist(observability.PersistSessionNotFound)
		logger.Warn("session not found, turn not persisted")
	default:
		result.PersistErr = err
		s.metrics.RecordPersist(observability.PersistFailed)
		logger.Error("failed to persist turn", zap.Error(err))
	}
}
