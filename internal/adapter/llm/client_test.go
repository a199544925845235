package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestClientOpenChatStream(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compatible-mode/v1/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hi\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL+"/compatible-mode/v1/", "sk-test", time.Second)
	body, err := client.OpenChatStream(context.Background(), &ChatCompletionRequest{
		Model:          "deepseek-r1",
		Messages:       []ChatMessage{{Role: "user", Content: "hello"}},
		EnableThinking: boolPtr(true),
		ThinkingBudget: intPtr(512),
	})
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"content":"hi"`)

	assert.Equal(t, "deepseek-r1", gotBody["model"])
	assert.Equal(t, true, gotBody["stream"])
	assert.Equal(t, true, gotBody["enable_thinking"])
	assert.Equal(t, float64(512), gotBody["thinking_budget"])
}

func TestClientOpenChatStreamOmitsThinkingFields(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	body, err := client.OpenChatStream(context.Background(), &ChatCompletionRequest{
		Model:    "qwen-plus",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	})
	require.NoError(t, err)
	body.Close()

	assert.NotContains(t, gotBody, "enable_thinking")
	assert.NotContains(t, gotBody, "thinking_budget")
}

func TestClientOpenChatStreamStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "wrong", time.Second)
	_, err := client.OpenChatStream(context.Background(), &ChatCompletionRequest{Model: "m"})
	require.Error(t, err)

	var upstreamErr *UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, ErrorKindStatus, upstreamErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, upstreamErr.StatusCode)
	assert.Contains(t, err.Error(), "bad key")
}

func TestClientConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "", time.Second)
	_, err := client.OpenChatStream(context.Background(), &ChatCompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, ErrorKindConnectionRefused, KindOf(err))
}

func TestClientTLSFailure(t *testing.T) {
	server := httptest.NewTLSServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	_, err := client.OpenChatStream(context.Background(), &ChatCompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, ErrorKindTLS, KindOf(err))
}

func TestClientCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("http://127.0.0.1:1", "", time.Second)
	_, err := client.OpenChatStream(ctx, &ChatCompletionRequest{Model: "m"})
	require.Error(t, err)
	assert.Equal(t, ErrorKindCanceled, KindOf(err))
}

func TestClientListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		fmt.Fprint(w, `{"object":"list","data":[{"id":"deepseek-r1","object":"model","created":1,"owned_by":"ali"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	models, err := client.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "deepseek-r1", models[0].ID)
}

func TestWrapTransportErrorKeepsUpstreamError(t *testing.T) {
	orig := &UpstreamError{Kind: ErrorKindStatus, StatusCode: 500}
	assert.Same(t, orig, WrapTransportError("op", orig))
	assert.Nil(t, WrapTransportError("op", nil))
	assert.Equal(t, ErrorKindTimeout, KindOf(WrapTransportError("read", context.DeadlineExceeded)))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
