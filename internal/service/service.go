// Package service implements the chat-turn pipeline and the session
// operations around it.
package service

import (
	"errors"
	"time"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
	"github.com/Hazehacker/Haze-AI-Hub/internal/config"
	"github.com/Hazehacker/Haze-AI-Hub/internal/observability"
	"github.com/Hazehacker/Haze-AI-Hub/internal/policy"
	"github.com/Hazehacker/Haze-AI-Hub/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned when a session is missing or inactive.
	ErrSessionNotFound = repository.ErrSessionNotFound
	// ErrEmptyPrompt is returned for a turn without user text.
	ErrEmptyPrompt = errors.New("prompt is required")
)

type Service struct {
	store        repository.Store
	llmClient    llm.LLMClient
	policyEngine *policy.Engine
	metrics      *observability.Metrics
	logger       *zap.Logger
	config       *config.Config

	now   func() time.Time
	newID func() string
}

// New wires a Service. policyEngine and metrics may be nil.
func New(store repository.Store, llmClient llm.LLMClient, policyEngine *policy.Engine, metrics *observability.Metrics, logger *zap.Logger, cfg *config.Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:        store,
		llmClient:    llmClient,
		policyEngine: policyEngine,
		metrics:      metrics,
		logger:       logger,
		config:       cfg,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.New().String() },
	}
}
