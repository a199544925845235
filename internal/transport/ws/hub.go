package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned when sending on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Connection represents a single WebSocket connection.
type Connection struct {
	ID   string
	Conn *websocket.Conn
	send chan []byte
	// writerDone is closed once the write pump has stopped draining send.
	writerDone chan struct{}
	writerOnce sync.Once

	mu         sync.Mutex
	closed     bool
	cancelTurn context.CancelFunc
	requestID  string
}

// Send queues v for the write pump, waiting while the buffer is full. It
// fails with ErrConnectionClosed once the write pump has stopped.
func (c *Connection) Send(ctx context.Context, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnectionClosed
	}

	select {
	case c.send <- data:
		return nil
	case <-c.writerDone:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stopWriter marks the write pump as gone so pending and future sends fail
// instead of waiting on a queue nobody drains.
func (c *Connection) stopWriter() {
	c.writerOnce.Do(func() { close(c.writerDone) })
}

// beginTurn records the running turn. It fails if one is already running.
func (c *Connection) beginTurn(requestID string, cancel context.CancelFunc) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelTurn != nil {
		return false
	}
	c.cancelTurn = cancel
	c.requestID = requestID
	return true
}

func (c *Connection) endTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelTurn != nil {
		c.cancelTurn()
		c.cancelTurn = nil
		c.requestID = ""
	}
}

// cancel stops the running turn, if any, and reports its request id.
func (c *Connection) cancel() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelTurn == nil {
		return "", false
	}
	c.cancelTurn()
	return c.requestID, true
}

// closeSend closes the outbound queue. Callers must ensure no Send is in
// flight.
func (c *Connection) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks open WebSocket connections.
type Hub struct {
	connections map[string]*Connection
	mu          sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{connections: make(map[string]*Connection)}
}

// NewConnection creates a new connection and registers it with the hub.
func (h *Hub) NewConnection(ws *websocket.Conn) *Connection {
	conn := &Connection{
		ID:         uuid.New().String(),
		Conn:       ws,
		send:       make(chan []byte, 256),
		writerDone: make(chan struct{}),
	}
	h.mu.Lock()
	h.connections[conn.ID] = conn
	h.mu.Unlock()
	return conn
}

// Unregister removes a connection from the hub.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	delete(h.connections, conn.ID)
	h.mu.Unlock()
}

// CloseAll cancels every running turn and closes every connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		conn.cancel()
		conn.Conn.Close()
	}
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
