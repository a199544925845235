package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"github.com/Hazehacker/Haze-AI-Hub/internal/service"
	"github.com/Hazehacker/Haze-AI-Hub/internal/stream"
)

const (
	contentTypeNDJSON = "application/x-ndjson"
	contentTypeText   = "text/html; charset=utf-8"
)

// ChatRequest carries the parameters of one turn.
type ChatRequest struct {
	Prompt         string `query:"prompt" form:"prompt" json:"prompt" validate:"required,maxbytes"`
	ChatID         string `query:"chatId" form:"chatId" json:"chatId"`
	EnableThinking bool   `query:"enableThinking" form:"enableThinking" json:"enableThinking"`
	ThinkingBudget int    `query:"thinkingBudget" form:"thinkingBudget" json:"thinkingBudget" validate:"min=0"`
}

func (r *ChatRequest) turn() domain.TurnRequest {
	turn := domain.TurnRequest{
		SessionID: r.ChatID,
		Message:   r.Prompt,
		Options:   domain.RequestOptions{EnableThinking: r.EnableThinking},
	}
	if r.ThinkingBudget > 0 {
		budget := r.ThinkingBudget
		turn.Options.ThinkingBudget = &budget
	}
	return turn
}

// ChatWithThinking streams a turn as NDJSON records.
// POST /api/v1/ai/chat-with-thinking
func (h *Handler) ChatWithThinking(c echo.Context) error {
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	w := &streamWriter{c: c, contentType: contentTypeNDJSON}
	_, err := h.service.ChatWithThinking(c.Request().Context(), req.turn(), func(chunk domain.StreamChunk) error {
		line, err := stream.Record(chunk)
		if err != nil {
			return err
		}
		return w.write(line)
	})
	if err == nil {
		w.start()
	}
	return h.finishStream(c, w, err)
}

// ChatWithThinkingText streams a turn as plain text with the thinking runs
// wrapped in <think>...</think>.
// POST /api/v1/ai/chat-with-thinking-text
func (h *Handler) ChatWithThinkingText(c echo.Context) error {
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	w := &streamWriter{c: c, contentType: contentTypeText}
	var framer stream.TextFramer
	_, err := h.service.ChatWithThinking(c.Request().Context(), req.turn(), func(chunk domain.StreamChunk) error {
		text := framer.Frame(chunk)
		if text == "" {
			return nil
		}
		return w.write([]byte(text))
	})
	if err == nil {
		if sentinel := framer.Finish(); sentinel != "" {
			err = w.write([]byte(sentinel))
		}
		w.start()
	}
	return h.finishStream(c, w, err)
}

// finishStream maps a turn error to a response. Once the body has started
// the status can no longer change, so the error is only logged.
func (h *Handler) finishStream(c echo.Context, w *streamWriter, err error) error {
	if err == nil {
		return nil
	}
	if w.started {
		if !errors.Is(err, context.Canceled) {
			h.logger.Warn("chat stream ended early", zap.Error(err))
		}
		return nil
	}

	switch {
	case errors.Is(err, service.ErrEmptyPrompt):
		return errorJSON(c, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled):
		return nil
	case llm.KindOf(err) == llm.ErrorKindTimeout:
		return errorJSON(c, http.StatusGatewayTimeout, err)
	case llm.KindOf(err) != "":
		return errorJSON(c, http.StatusBadGateway, err)
	default:
		return errorJSON(c, http.StatusInternalServerError, err)
	}
}

// streamWriter writes the response headers lazily so errors raised before
// the first chunk can still be reported with a proper status.
type streamWriter struct {
	c           echo.Context
	contentType string
	started     bool
}

func (w *streamWriter) start() {
	if w.started {
		return
	}
	res := w.c.Response()
	res.Header().Set(echo.HeaderContentType, w.contentType)
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	w.started = true
}

func (w *streamWriter) write(b []byte) error {
	w.start()
	if _, err := w.c.Response().Write(b); err != nil {
		return err
	}
	w.c.Response().Flush()
	return nil
}
