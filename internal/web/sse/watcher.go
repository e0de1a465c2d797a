package sse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/registry"
)

// Buffer size for outgoing messages
const sendBufferSize = 256

// Watcher is a read-only SSE subscriber to one room's broadcasts
type Watcher struct {
	id     string
	roomID model.RoomID

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

var _ registry.Conn = (*Watcher)(nil)

// NewWatcher creates a new Watcher for a room
func NewWatcher(roomID model.RoomID) *Watcher {
	return &Watcher{
		id:     "sse-" + uuid.NewString(),
		roomID: roomID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// ID returns the watcher's connection id
func (w *Watcher) ID() string {
	return w.id
}

// Send queues an event as a formatted SSE frame. Never blocks.
func (w *Watcher) Send(msg model.OutboundMessage) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	select {
	case w.send <- formatSSEMessage(string(msg.Event), string(msg.Data)):
		return true
	default:
		return false
	}
}

// Close ends the stream. Safe to call more than once.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.send)
}
