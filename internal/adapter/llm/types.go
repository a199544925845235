package llm

// ChatCompletionRequest is the OpenAI-compatible streaming request body.
// enable_thinking and thinking_budget are provider extensions understood by
// reasoning-capable models.
type ChatCompletionRequest struct {
	Model          string        `json:"model"`
	Stream         bool          `json:"stream"`
	Messages       []ChatMessage `json:"messages"`
	EnableThinking *bool         `json:"enable_thinking,omitempty"`
	ThinkingBudget *int          `json:"thinking_budget,omitempty"`
}

// ChatMessage represents a chat message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError represents the error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// Model represents a model from the models list.
type Model struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ModelsResponse represents the response from /models.
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}
