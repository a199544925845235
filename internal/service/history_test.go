package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"github.com/Hazehacker/Haze-AI-Hub/internal/repository"
	"github.com/Hazehacker/Haze-AI-Hub/tests/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// listStore returns canned messages from ListMessages.
type listStore struct {
	repository.Store
	messages []domain.Message
	err      error
}

func (s listStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	return s.messages, s.err
}

func seedTurns(t *testing.T, store repository.Store, sessionID string, n int) {
	t.Helper()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		err := store.PersistTurn(context.Background(), &repository.Turn{
			SessionID: sessionID,
			User:      &domain.Message{MessageID: fmt.Sprintf("u%d", i), Role: domain.RoleUser, Content: fmt.Sprintf("q%d", i)},
			Assistant: &domain.Message{MessageID: fmt.Sprintf("a%d", i), Role: domain.RoleAssistant, Content: fmt.Sprintf("a%d", i)},
			At:        base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
}

func TestLoadHistoryWindow(t *testing.T) {
	env := newTestEnv(t, &scriptedClient{})
	helpers.CreateActiveSession(t, env.store, "s1")
	seedTurns(t, env.store, "s1", 5)

	history := env.svc.LoadHistory(context.Background(), "s1", 5)
	require.Len(t, history, 5)
	assert.Equal(t, domain.HistoryMessage{Role: domain.RoleAssistant, Content: "a2"}, history[0])
	assert.Equal(t, domain.HistoryMessage{Role: domain.RoleUser, Content: "q3"}, history[1])
	assert.Equal(t, domain.HistoryMessage{Role: domain.RoleAssistant, Content: "a4"}, history[4])

	req := BuildChatRequest("m", "next", history, domain.RequestOptions{}, true)
	require.Len(t, req.Messages, 6)
	assert.Equal(t, "next", req.Messages[5].Content)
}

func TestLoadHistoryNeverFails(t *testing.T) {
	env := newTestEnv(t, &scriptedClient{})

	assert.Empty(t, env.svc.LoadHistory(context.Background(), "", 5))
	assert.Empty(t, env.svc.LoadHistory(context.Background(), "unknown", 5))
	assert.Empty(t, env.svc.LoadHistory(context.Background(), "unknown", 0))

	broken := New(listStore{err: errors.New("db locked")}, nil, nil, nil, zap.NewNop(), testConfig())
	assert.Empty(t, broken.LoadHistory(context.Background(), "s1", 5))
}

func TestLoadHistorySkipsUnknownRoles(t *testing.T) {
	store := listStore{messages: []domain.Message{
		{MessageID: "1", Role: domain.RoleSystem, Content: "be brief"},
		{MessageID: "2", Role: domain.Role("tool"), Content: "{}"},
		{MessageID: "3", Role: domain.RoleUser, Content: "hi"},
	}}
	svc := New(store, nil, nil, nil, zap.NewNop(), testConfig())

	history := svc.LoadHistory(context.Background(), "s1", 5)
	assert.Equal(t, []domain.HistoryMessage{
		{Role: domain.RoleSystem, Content: "be brief"},
		{Role: domain.RoleUser, Content: "hi"},
	}, history)
}
