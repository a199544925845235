package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
	"unicode/utf8"
)

// mockReadSize is deliberately small and odd so frames straddle reads.
const mockReadSize = 7

// MockClient is a mock implementation of LLMClient for local runs and tests.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// OpenChatStream returns a canned SSE body. Reasoning frames are included
// when the request enables thinking.
func (m *MockClient) OpenChatStream(ctx context.Context, req *ChatCompletionRequest) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, WrapTransportError("send chat request", err)
	}

	var buf bytes.Buffer
	if req.EnableThinking != nil && *req.EnableThinking {
		for _, part := range splitRunes(fmt.Sprintf("The user said %q. I should answer briefly.", lastUserMessage(req)), 12) {
			writeFrame(&buf, map[string]any{"reasoning_content": part, "content": nil})
		}
	}
	for _, part := range splitRunes(m.generateMockResponse(req), 10) {
		writeFrame(&buf, map[string]any{"content": part})
	}
	buf.WriteString("data: [DONE]\n\n")

	return &mockStream{ctx: ctx, data: buf.Bytes()}, nil
}

// ListModels returns a list of mock models.
func (m *MockClient) ListModels(ctx context.Context) ([]Model, error) {
	return []Model{
		{ID: "mock-deepseek-r1", Object: "model", Created: time.Now().Unix(), OwnedBy: "mock"},
		{ID: "mock-qwen-plus", Object: "model", Created: time.Now().Unix(), OwnedBy: "mock"},
	}, nil
}

// generateMockResponse generates a mock response based on the request.
func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	last := lastUserMessage(req)
	if last == "" {
		return "[MOCK] This is a mock response from the LLM client."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(last, 100))
}

func lastUserMessage(req *ChatCompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func writeFrame(buf *bytes.Buffer, delta map[string]any) {
	data, _ := json.Marshal(map[string]any{
		"object":  "chat.completion.chunk",
		"choices": []any{map[string]any{"index": 0, "delta": delta}},
	})
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
}

// mockStream serves data in small reads and stops once ctx is done.
type mockStream struct {
	ctx  context.Context
	data []byte
}

func (s *mockStream) Read(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	if len(s.data) == 0 {
		return 0, io.EOF
	}
	n := copy(p[:min(len(p), mockReadSize)], s.data)
	s.data = s.data[n:]
	return n, nil
}

func (s *mockStream) Close() error { return nil }

// splitRunes splits s into pieces of at most size runes.
func splitRunes(s string, size int) []string {
	var parts []string
	for len(s) > 0 {
		end, count := 0, 0
		for end < len(s) && count < size {
			_, w := utf8.DecodeRuneInString(s[end:])
			end += w
			count++
		}
		parts = append(parts, s[:end])
		s = s[end:]
	}
	return parts
}

// truncate truncates a string to the given number of runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
