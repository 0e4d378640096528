// Package transport implements the one concrete Transport adapter: a
// WebSocket connection per client, framing inbound/outbound events as JSON
// and handing them to the Event Dispatcher.
package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/roomrelay/signaling/internal/dispatch"
	"github.com/roomrelay/signaling/internal/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// wsConn is the subset of *websocket.Conn a Connection needs, enabling
// tests with a fake connection instead of a real socket.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// inboundFrame is the wire shape of one inbound event.
type inboundFrame struct {
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

// Connection is one client's WebSocket connection. It implements
// fanout.Sink so the Fan-out Engine can enqueue outbound frames to it.
type Connection struct {
	id   string
	conn wsConn
	send chan []byte
	done chan struct{}
}

// NewConnection wraps conn with a bounded outbound queue of the given size.
func NewConnection(id string, conn wsConn, sendBufferSize int) *Connection {
	return &Connection{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

// Enqueue implements fanout.Sink. It never blocks: if the outbound queue is
// full, it reports failure so the Fan-out Engine can close the connection.
func (c *Connection) Enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// Close implements fanout.Sink, safe to call more than once (overflow and a
// normal disconnect may race to close the same connection).
func (c *Connection) Close() {
	select {
	case <-c.done:
		return
	default:
		close(c.done)
		close(c.send)
	}
}

// writePump drains outbound frames onto the socket until the connection is
// closed, then sends a close frame. Runs in its own goroutine.
func (c *Connection) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump reads inbound frames until the socket errors or closes, handing
// each to the Dispatcher, then triggers disconnect cleanup. Runs in its own
// goroutine.
func (c *Connection) readPump(d *dispatch.Dispatcher) {
	defer func() {
		d.HandleDisconnect(context.Background(), c.id)
		c.conn.Close()
		c.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			logging.Warn(context.Background(), "dropping malformed frame", zap.String("connection_id", c.id), zap.Error(err))
			continue
		}

		d.Dispatch(context.Background(), c.id, frame.Event, frame.Payload)
	}
}
