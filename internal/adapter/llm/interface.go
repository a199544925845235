// Package llm provides the client for the upstream OpenAI-compatible
// chat-completions endpoint.
package llm

import (
	"context"
	"io"
)

// LLMClient defines the interface for LLM API operations.
type LLMClient interface {
	// OpenChatStream sends a streaming chat completion request and returns
	// the raw text/event-stream body. The caller must close it.
	OpenChatStream(ctx context.Context, req *ChatCompletionRequest) (io.ReadCloser, error)

	// ListModels retrieves the list of available models.
	ListModels(ctx context.Context) ([]Model, error)
}

// Ensure Client implements LLMClient interface.
var _ LLMClient = (*Client)(nil)
