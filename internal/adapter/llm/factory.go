package llm

import (
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	// EnvHazeMode is the environment variable name for mode selection.
	EnvHazeMode = "HAZE_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewLLMClient returns a MockClient when mock is set or HAZE_MODE=MOCK, and a
// real Client otherwise.
func NewLLMClient(baseURL, apiKey string, timeout time.Duration, mock bool, logger *zap.Logger) LLMClient {
	if mock || os.Getenv(EnvHazeMode) == ModeMock {
		logger.Info("using mock LLM client")
		return NewMockClient()
	}

	return NewClient(baseURL, apiKey, timeout)
}
