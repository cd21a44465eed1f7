package bridge

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var errConnClosed = fmt.Errorf("connection closed")

// wsConn wraps a websocket connection with a write lock and an idempotent
// close. Reads stay unlocked: each connection has exactly one reader.
type wsConn struct {
	conn      *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    atomic.Bool
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{conn: conn}
}

// WriteJSON sends one JSON message. Writes after Close fail fast without
// touching the underlying connection.
func (c *wsConn) WriteJSON(v any) error {
	if c.closed.Load() {
		return errConnClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// ReadMessage blocks until the next message arrives or the connection
// fails. Must only be called from the leg's single receive loop.
func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

// Close marks the connection closed, attempts a polite close handshake and
// releases the underlying socket. Safe to call from either leg, any number
// of times.
func (c *wsConn) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.writeMu.Unlock()

		_ = c.conn.Close()
	})
}

// IsOpen reports whether Close has not yet been called.
func (c *wsConn) IsOpen() bool {
	return !c.closed.Load()
}
