// Package ws streams chat turns over WebSocket connections.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	"github.com/Hazehacker/Haze-AI-Hub/internal/adapter/llm"
	"github.com/Hazehacker/Haze-AI-Hub/internal/config"
	"github.com/Hazehacker/Haze-AI-Hub/internal/domain"
	"github.com/Hazehacker/Haze-AI-Hub/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      config.WS
	service  *service.Service
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(cfg config.WS, svc *service.Service, h *Hub, logger *zap.Logger) *Server {
	return &Server{
		cfg:     cfg,
		service: svc,
		hub:     h,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/ai/ws", s.HandleWebSocket)
}

// Hub returns the connection registry.
func (s *Server) Hub() *Hub {
	return s.hub
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return nil
	}

	conn := s.hub.NewConnection(ws)
	ws.SetReadLimit(s.cfg.MaxMessageSize)
	logger := s.logger.With(zap.String("conn_id", conn.ID))
	logger.Debug("websocket connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg conc.WaitGroup
	wg.Go(func() { s.writePump(conn, logger) })
	wg.Go(func() { s.readPump(ctx, cancel, conn, logger) })
	wg.Wait()

	logger.Debug("websocket disconnected")
	return nil
}

// readPump reads messages until the connection fails, then stops every
// running turn before closing the outbound queue.
func (s *Server) readPump(ctx context.Context, cancel context.CancelFunc, conn *Connection, logger *zap.Logger) {
	var turns conc.WaitGroup
	defer func() {
		cancel()
		turns.Wait()
		s.hub.Unregister(conn)
		conn.closeSend()
	}()

	conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		s.handleMessage(ctx, conn, &turns, message, logger)
	}
}

// writePump writes queued messages and keepalive pings.
func (s *Server) writePump(conn *Connection, logger *zap.Logger) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.stopWriter()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.send:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("failed to write websocket message", zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(ctx context.Context, conn *Connection, turns *conc.WaitGroup, data []byte, logger *zap.Logger) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		s.sendError(ctx, conn, BaseMessage{}, ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case TypeChat:
		s.handleChat(ctx, conn, turns, data, logger)
	case TypeCancel:
		s.handleCancel(ctx, conn, baseMsg)
	default:
		s.sendError(ctx, conn, baseMsg, ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

// handleChat starts a turn in the background. A connection runs at most one
// turn at a time.
func (s *Server) handleChat(ctx context.Context, conn *Connection, turns *conc.WaitGroup, data []byte, logger *zap.Logger) {
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(ctx, conn, BaseMessage{}, ErrorCodeInvalidMessage, "invalid chat message")
		return
	}
	if strings.TrimSpace(msg.Prompt) == "" {
		s.sendError(ctx, conn, msg.BaseMessage, ErrorCodeInvalidMessage, "prompt is required")
		return
	}
	if msg.ThinkingBudget != nil && *msg.ThinkingBudget < 0 {
		s.sendError(ctx, conn, msg.BaseMessage, ErrorCodeInvalidMessage, "thinking_budget must be >= 0")
		return
	}
	if msg.RequestID == "" {
		msg.RequestID = "req_" + uuid.New().String()[:8]
	}

	turnCtx, cancelTurn := context.WithCancel(ctx)
	if !conn.beginTurn(msg.RequestID, cancelTurn) {
		cancelTurn()
		s.sendError(ctx, conn, msg.BaseMessage, ErrorCodeBusy, "a turn is already running on this connection")
		return
	}

	turns.Go(func() {
		defer conn.endTurn()
		s.runTurn(ctx, turnCtx, conn, msg, logger)
	})
}

// runTurn streams one turn. Replies after the stream use the connection
// context so a canceled turn can still be reported.
func (s *Server) runTurn(connCtx, turnCtx context.Context, conn *Connection, msg ChatMessage, logger *zap.Logger) {
	header := func(typ string) BaseMessage {
		return BaseMessage{Type: typ, Ts: time.Now().UnixMilli(), RequestID: msg.RequestID, SessionID: msg.SessionID}
	}

	result, err := s.service.ChatWithThinking(turnCtx, domain.TurnRequest{
		SessionID: msg.SessionID,
		Message:   msg.Prompt,
		Options: domain.RequestOptions{
			EnableThinking: msg.EnableThinking,
			ThinkingBudget: msg.ThinkingBudget,
		},
	}, func(chunk domain.StreamChunk) error {
		return conn.Send(turnCtx, ChunkMessage{BaseMessage: header(TypeChunk), Chunk: chunk})
	})

	switch {
	case err == nil:
		done := DoneMessage{BaseMessage: header(TypeDone), Persisted: result.Persisted, Empty: result.Answer == ""}
		if result.PersistErr != nil {
			done.PersistError = result.PersistErr.Error()
		}
		conn.Send(connCtx, done)
	case errors.Is(err, context.Canceled):
		s.sendError(connCtx, conn, header(TypeError), ErrorCodeCanceled, "turn canceled")
	case llm.KindOf(err) != "":
		s.sendError(connCtx, conn, header(TypeError), ErrorCodeUpstream, err.Error())
	default:
		logger.Warn("websocket turn failed", zap.String("request_id", msg.RequestID), zap.Error(err))
		s.sendError(connCtx, conn, header(TypeError), ErrorCodeInternalError, err.Error())
	}
}

// handleCancel stops the running turn; the turn itself reports the outcome.
func (s *Server) handleCancel(ctx context.Context, conn *Connection, base BaseMessage) {
	if _, ok := conn.cancel(); !ok {
		s.sendError(ctx, conn, base, ErrorCodeInvalidMessage, "no turn is running")
	}
}

// sendError sends an error message to a connection.
func (s *Server) sendError(ctx context.Context, conn *Connection, base BaseMessage, code, message string) {
	base.Type = TypeError
	base.Ts = time.Now().UnixMilli()
	conn.Send(ctx, ErrorMessage{BaseMessage: base, Code: code, Message: message})
}
