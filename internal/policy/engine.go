// Package policy decides the effective thinking options of a turn with an
// OPA rego module.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Input describes one request to the thinking policy.
type Input struct {
	Model             string
	ThinkingCapable   bool
	EnableThinking    bool
	ThinkingBudget    *int
	MaxThinkingBudget int
}

// Decision is the effective thinking configuration of a turn.
type Decision struct {
	EnableThinking bool
	ThinkingBudget *int
	Reason         string
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.thinking.decision"),
		rego.Module("thinking.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// LoadPolicy returns the policy stored at path, or DefaultPolicy when path
// is empty.
func LoadPolicy(path string) (string, error) {
	if path == "" {
		return DefaultPolicy, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read policy file: %w", err)
	}
	return string(data), nil
}

// EvaluateThinking runs the policy for in.
func (e *Engine) EvaluateThinking(ctx context.Context, in Input) (Decision, error) {
	requested := map[string]interface{}{
		"enable_thinking": in.EnableThinking,
	}
	if in.ThinkingBudget != nil {
		requested["thinking_budget"] = *in.ThinkingBudget
	}
	input := map[string]interface{}{
		"model":            in.Model,
		"thinking_capable": in.ThinkingCapable,
		"requested":        requested,
		"limits": map[string]interface{}{
			"max_thinking_budget": in.MaxThinkingBudget,
		},
	}

	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{}, fmt.Errorf("policy produced no decision")
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected decision type %T", results[0].Expressions[0].Value)
	}

	var d Decision
	d.EnableThinking, _ = obj["enable_thinking"].(bool)
	d.Reason, _ = obj["reason"].(string)
	if raw, ok := obj["thinking_budget"]; ok {
		budget, err := toInt(raw)
		if err != nil {
			return Decision{}, fmt.Errorf("invalid thinking_budget: %w", err)
		}
		d.ThinkingBudget = &budget
	}
	return d, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// DefaultPolicy is the default policy content. Thinking is only enabled for
// thinking-capable models, and a positive max_thinking_budget caps the budget.
const DefaultPolicy = `
package thinking

requested_budget := input.requested.thinking_budget

max_budget := input.limits.max_thinking_budget

default enable_thinking := false

enable_thinking if {
	input.requested.enable_thinking == true
	input.thinking_capable == true
}

clamped if {
	max_budget > 0
	requested_budget > max_budget
}

thinking_budget := max_budget if {
	enable_thinking
	clamped
}

thinking_budget := requested_budget if {
	enable_thinking
	requested_budget > 0
	not clamped
}

default reason := "requested"

reason := "model_not_thinking_capable" if {
	input.requested.enable_thinking == true
	not input.thinking_capable
}

reason := "budget_clamped" if {
	enable_thinking
	clamped
}

decision := {"enable_thinking": enable_thinking, "thinking_budget": thinking_budget, "reason": reason}

decision := {"enable_thinking": enable_thinking, "reason": reason} if {
	not thinking_budget
}
`
