package service

import (
	"context"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"github.com/Hazehacker/Haze-AI-Hub/internal/policy"
	"go.uber.org/zap"
)

// BuildChatRequest assembles the upstream request for one turn: history
// followed by the user message. Thinking fields are set only when thinking
// is requested and the model supports it; the budget only when positive.
func BuildChatRequest(model, message string, history []domain.HistoryMessage, opts domain.RequestOptions, thinkingCapable bool) *llm.ChatCompletionRequest {
	messages := make([]llm.ChatMessage, 0, len(history)+1)
	for _, h := range history {
		messages = append(messages, llm.ChatMessage{Role: string(h.Role), Content: h.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: string(domain.RoleUser), Content: message})

	req := &llm.ChatCompletionRequest{
		Model:    model,
		Stream:   true,
		Messages: messages,
	}
	if opts.EnableThinking && thinkingCapable {
		enabled := true
		req.EnableThinking = &enabled
		if opts.ThinkingBudget != nil && *opts.ThinkingBudget > 0 {
			budget := *opts.ThinkingBudget
			req.ThinkingBudget = &budget
		}
	}
	return req
}

// sentOptions reports the thinking options req actually carries upstream.
func sentOptions(req *llm.ChatCompletionRequest) domain.RequestOptions {
	var opts domain.RequestOptions
	if req.EnableThinking != nil && *req.EnableThinking {
		opts.EnableThinking = true
		if req.ThinkingBudget != nil {
			budget := *req.ThinkingBudget
			opts.ThinkingBudget = &budget
		}
	}
	return opts
}

// resolveOptions applies the thinking policy. If the policy cannot be
// evaluated the requested options are used unchanged.
func (s *Service) resolveOptions(ctx context.Context, requested domain.RequestOptions, logger *zap.Logger) domain.RequestOptions {
	if s.policyEngine == nil {
		return requested
	}

	decision, err := s.policyEngine.EvaluateThinking(ctx, policy.Input{
		Model:             s.config.LLM.Model,
		ThinkingCapable:   s.config.LLM.ThinkingCapable,
		EnableThinking:    requested.EnableThinking,
		ThinkingBudget:    requested.ThinkingBudget,
		MaxThinkingBudget: s.config.Policy.MaxThinkingBudget,
	})
	if err != nil {
		logger.Warn("thinking policy failed, using requested options", zap.Error(err))
		return requested
	}

	if decision.EnableThinking != requested.EnableThinking || decision.Reason != "requested" {
		logger.Debug("thinking policy adjusted options",
			zap.Bool("enable_thinking", decision.EnableThinking), zap.String("reason", decision.Reason))
	}
	return domain.RequestOptions{
		EnableThinking: decision.EnableThinking,
		ThinkingBudget: decision.ThinkingBudget,
	}
}
