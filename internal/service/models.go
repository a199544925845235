package service

import (
	"context"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
)

// ListModels retrieves the list of available models.
func (s *Service) ListModels(ctx context.Context) ([]llm.Model, error) {
	return s.llmClient.ListModels(ctx)
}

// Ready reports whether the store is reachable.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
