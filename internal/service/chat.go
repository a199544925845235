package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"github.com/Hazehacker/Haze-AI-Hub/internal/observability"
	"github.com/Hazehacker/Haze-AI-Hub/internal/stream"
	"go.uber.org/zap"
)

// EmitFunc delivers one chunk to the client. Returning an error stops the
// turn without persisting it.
type EmitFunc func(domain.StreamChunk) error

// TurnResult describes how a turn ended.
type TurnResult struct {
	RequestID string
	SessionID string
	Options   domain.RequestOptions

	Answer   string
	Thinking string
	Chunks   int

	Persisted          bool
	UserMessageID      string
	AssistantMessageID string
	// PersistErr is set when a completed turn could not be stored. It never
	// affects what the client already received.
	PersistErr error
}

// ChatWithThinking runs one turn: it streams the upstream reply through
// emit in arrival order and, on normal completion with a non-empty answer,
// persists the exchange once.
//
// The returned error reports why streaming stopped early (upstream failure,
// cancellation, or emit failure). In that case nothing is persisted. The
// result is non-nil whenever the upstream stream was opened.
func (s *Service) ChatWithThinking(ctx context.Context, req domain.TurnRequest, emit EmitFunc) (*TurnResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyPrompt
	}

	requestID := s.newID()
	logger := s.logger.With(
		zap.String("request_id", requestID),
		zap.String("session_id", req.SessionID),
		zap.String("model", s.config.LLM.Model),
	)
	defer s.metrics.StreamStarted()()
	start := time.Now()

	opts := s.resolveOptions(ctx, req.Options, logger)
	history := s.LoadHistory(ctx, req.SessionID, s.config.Chat.HistoryWindow)
	chatReq := BuildChatRequest(s.config.LLM.Model, req.Message, history, opts, s.config.LLM.ThinkingCapable)
	opts = sentOptions(chatReq)

	logger.Info("starting chat turn",
		zap.Int("history", len(history)),
		zap.Bool("enable_thinking", chatReq.EnableThinking != nil))

	body, err := s.llmClient.OpenChatStream(ctx, chatReq)
	if err != nil {
		s.recordStreamError(logger, err)
		return nil, err
	}
	defer body.Close()

	result := &TurnResult{RequestID: requestID, SessionID: req.SessionID, Options: opts}
	var acc stream.Accumulator

	onMalformed := func(payload string, err error) {
		s.metrics.RecordMalformed()
		logger.Warn("skipping malformed stream payload", zap.String("payload", clip(payload, 256)), zap.Error(err))
	}

	for chunk, err := range stream.Chunks(body, onMalformed) {
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			err = llm.WrapTransportError("read chat stream", err)
			s.fillResult(result, &acc)
			s.recordStreamError(logger, err)
			return result, err
		}

		if acc.Chunks() == 0 {
			s.metrics.RecordFirstChunk(time.Since(start))
		}
		acc.Add(chunk)
		s.metrics.RecordChunk(string(chunk.Type))

		if err := emit(chunk); err != nil {
			s.fillResult(result, &acc)
			s.metrics.RecordTurn(observability.OutcomeClient)
			logger.Info("client stopped receiving, turn not persisted", zap.Error(err))
			return result, fmt.Errorf("emit chunk: %w", err)
		}
	}

	s.fillResult(result, &acc)
	if err := ctx.Err(); err != nil {
		err = llm.WrapTransportError("read chat stream", err)
		s.recordStreamError(logger, err)
		return result, err
	}

	if !acc.HasAnswer() {
		s.metrics.RecordTurn(observability.OutcomeEmpty)
		logger.Warn("stream completed without answer text, turn not persisted", zap.Int("chunks", acc.Chunks()))
		return result, nil
	}

	s.persistTurn(ctx, req, opts, &acc, result, logger)
	s.metrics.RecordTurn(observability.OutcomeCompleted)
	logger.Info("chat turn completed",
		zap.Int("chunks", acc.Chunks()),
		zap.Int("answer_len", utf8.RuneCountInString(result.Answer)),
		zap.Bool("persisted", result.Persisted),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (s *Service) fillResult(result *TurnResult, acc *stream.Accumulator) {
	result.Answer = acc.Answer()
	result.Thinking = acc.Thinking()
	result.Chunks = acc.Chunks()
}

// recordStreamError logs and counts a failed or canceled turn. Each error
// kind gets its own message so connectivity problems are easy to tell apart.
func (s *Service) recordStreamError(logger *zap.Logger, err error) {
	if errors.Is(err, context.Canceled) || llm.KindOf(err) == llm.ErrorKindCanceled {
		s.metrics.RecordTurn(observability.OutcomeCanceled)
		logger.Info("chat turn canceled")
		return
	}

	kind := llm.KindOf(err)
	if kind == "" {
		kind = llm.ErrorKindTransport
	}
	s.metrics.RecordUpstreamError(string(kind))
	s.metrics.RecordTurn(observability.OutcomeUpstream)

	fields := []zap.Field{zap.String("error_kind", string(kind)), zap.Error(err)}
	switch kind {
	case llm.ErrorKindDNS:
		logger.Error("upstream DNS resolution failed, check network and DNS settings", fields...)
	case llm.ErrorKindConnectionRefused:
		logger.Error("upstream refused the connection, check firewall and proxy settings", fields...)
	case llm.ErrorKindTLS:
		logger.Error("upstream TLS handshake failed", fields...)
	case llm.ErrorKindTimeout:
		logger.Error("upstream timed out", fields...)
	case llm.ErrorKindStatus:
		logger.Error("upstream returned an error status", fields...)
	default:
		logger.Error("upstream stream failed", fields...)
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
