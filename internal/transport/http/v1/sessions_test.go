package v1

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
)

func TestSessionEndpoints(t *testing.T) {
	up := newUpstream(t, http.StatusOK, frameAnswer, frameDone)
	h, _, e := newTestHandler(t, up.URL)

	// Create
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/session/create", strings.NewReader(`{"userId":"u1","type":"chat","title":"demo"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.CreateSession(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		SessionID string         `json:"session_id"`
		Session   domain.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, "demo", created.Session.Title)

	// Chat into it
	req = httptest.NewRequest(http.MethodPost, "/api/v1/ai/chat-with-thinking?prompt=hi&chatId="+created.SessionID, nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.ChatWithThinking(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	// List messages
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.SessionID)
	require.NoError(t, h.GetSessionMessages(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var listed struct {
		Messages []domain.Message `json:"messages"`
		HasMore  bool             `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Messages, 2)
	assert.Equal(t, domain.RoleUser, listed.Messages[0].Role)
	assert.Equal(t, "c", listed.Messages[1].Content)
	assert.False(t, listed.HasMore)

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/", nil)
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.SessionID)
	require.NoError(t, h.DeleteSession(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Deleting again is a 404
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(created.SessionID)
	require.NoError(t, h.DeleteSession(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSessionValidation(t *testing.T) {
	h, _, e := newTestHandler(t, "http://127.0.0.1:1")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai/session/create?type=chat", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.CreateSession(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ai/session/create?userId=u1&type=video", nil)
	rec = httptest.NewRecorder()
	require.NoError(t, h.CreateSession(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Session domain.Session `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "video", created.Session.Type)
}
