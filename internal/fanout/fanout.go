// Package fanout implements the Fan-out Engine: to-one, to-room, and
// to-room-except delivery over bounded per-connection outbound queues. A
// slow recipient is never allowed to block delivery to anyone else, and an
// overflowing recipient is closed rather than given an unbounded queue.
package fanout

import (
	"context"
	"sync"

	"github.com/roomrelay/signaling/internal/logging"
	"github.com/roomrelay/signaling/internal/metrics"
)

// Sink is one connection's outbound path, implemented by the Transport
// adapter. Enqueue must never block; it returns false if the connection's
// queue is full.
type Sink interface {
	Enqueue(payload []byte) bool
	Close()
}

// MemberLister exposes room membership for broadcast delivery. The Room
// Store satisfies this.
type MemberLister interface {
	ConnectionIDsInRoom(roomID string) []string
}

// Engine is the Fan-out Engine.
type Engine struct {
	mu    sync.RWMutex
	sinks map[string]Sink
	rooms MemberLister
}

// NewEngine returns an Engine that resolves room membership via rooms.
func NewEngine(rooms MemberLister) *Engine {
	return &Engine{sinks: make(map[string]Sink), rooms: rooms}
}

// Register associates connectionID with its outbound Sink.
func (e *Engine) Register(connectionID string, sink Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks[connectionID] = sink
}

// Unregister removes connectionID's Sink, e.g. once its connection closes.
func (e *Engine) Unregister(connectionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sinks, connectionID)
}

func (e *Engine) sink(connectionID string) (Sink, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.sinks[connectionID]
	return s, ok
}

// ToOne enqueues payload for a single connection. Unknown connections are a
// silent no-op. Overflow closes the connection rather than dropping or
// blocking.
func (e *Engine) ToOne(connectionID string, payload []byte) {
	sink, ok := e.sink(connectionID)
	if !ok {
		return
	}
	if !sink.Enqueue(payload) {
		metrics.ConnectionsClosedOverflow.Inc()
		logging.Warn(context.Background(), "closing connection: outbound queue overflow")
		sink.Close()
	}
}

// Close closes and unregisters connectionID's Sink directly, used when the
// Event Dispatcher requests a connection be torn down (e.g. kick/ban)
// rather than because its outbound queue overflowed.
func (e *Engine) Close(connectionID string) {
	sink, ok := e.sink(connectionID)
	if !ok {
		return
	}
	e.Unregister(connectionID)
	sink.Close()
}

// ToRoom enqueues payload for every member of roomID, including sender.
func (e *Engine) ToRoom(roomID string, payload []byte) {
	for _, id := range e.rooms.ConnectionIDsInRoom(roomID) {
		e.ToOne(id, payload)
	}
}

// ToRoomExcept enqueues payload for every member of roomID other than
// exceptConnectionID.
func (e *Engine) ToRoomExcept(roomID, exceptConnectionID string, payload []byte) {
	for _, id := range e.rooms.ConnectionIDsInRoom(roomID) {
		if id == exceptConnectionID {
			continue
		}
		e.ToOne(id, payload)
	}
}
