package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
	"github.com/Hazehacker/Haze-AI-Hub/internal/config"
	"github.com/Hazehacker/Haze-AI-Hub/internal/observability"
	"github.com/Hazehacker/Haze-AI-Hub/internal/repository"
	"github.com/Hazehacker/Haze-AI-Hub/tests/helpers"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// scriptedClient serves a fixed SSE body and records the last request.
type scriptedClient struct {
	mu      sync.Mutex
	body    func(ctx context.Context) io.ReadCloser
	openErr error
	last    *llm.ChatCompletionRequest
}

func sseBody(frames ...string) func(context.Context) io.ReadCloser {
	return func(context.Context) io.ReadCloser {
		return io.NopCloser(strings.NewReader(strings.Join(frames, "")))
	}
}

func (c *scriptedClient) OpenChatStream(ctx context.Context, req *llm.ChatCompletionRequest) (io.ReadCloser, error) {
	c.mu.Lock()
	c.last = req
	c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.body(ctx), nil
}

func (c *scriptedClient) ListModels(ctx context.Context) ([]llm.Model, error) {
	return []llm.Model{{ID: "deepseek-r1"}}, nil
}

func (c *scriptedClient) lastRequest() *llm.ChatCompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func testConfig() *config.Config {
	return &config.Config{
		LLM:  config.LLM{Model: "deepseek-r1", ThinkingCapable: true},
		Chat: config.Chat{HistoryWindow: 5},
	}
}

type testEnv struct {
	svc     *Service
	store   *repository.SQLiteStore
	metrics *observability.Metrics
	client  *scriptedClient
}

func newTestEnv(t *testing.T, client *scriptedClient) *testEnv {
	t.Helper()
	store := helpers.NewTestSQLiteStore(t)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return &testEnv{
		svc:     New(store, client, nil, metrics, zap.NewNop(), testConfig()),
		store:   store,
		metrics: metrics,
		client:  client,
	}
}

// failingPersistStore rejects every turn write.
type failingPersistStore struct {
	repository.Store
}

func (s failingPersistStore) PersistTurn(ctx context.Context, turn *repository.Turn) error {
	return errors.New("disk full")
}

// errReader yields data and then fails.
type errReader struct {
	data string
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

// blockingBody yields data and then blocks until ctx is done.
type blockingBody struct {
	ctx  context.Context
	data string
}

func (b *blockingBody) Read(p []byte) (int, error) {
	if b.data != "" {
		n := copy(p, b.data)
		b.data = b.data[n:]
		return n, nil
	}
	<-b.ctx.Done()
	return 0, b.ctx.Err()
}

func (b *blockingBody) Close() error { return nil }
