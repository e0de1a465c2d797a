package testutil

import (
	"encoding/json"
	"sync"

	"github.com/mcoot/sudoku-race/internal/model"
)

// RecordingConn is an in-memory connection that keeps every message it is sent
type RecordingConn struct {
	id string

	mu       sync.Mutex
	messages []model.OutboundMessage
	closed   bool
	full     bool
}

// NewRecordingConn creates a RecordingConn with the given id
func NewRecordingConn(id string) *RecordingConn {
	return &RecordingConn{id: id}
}

func (c *RecordingConn) ID() string {
	return c.id
}

// Send records the message unless the connection is closed or marked full
func (c *RecordingConn) Send(msg model.OutboundMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.full {
		return false
	}
	c.messages = append(c.messages, msg)
	return true
}

func (c *RecordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// SetFull makes subsequent sends fail as if the buffer were full
func (c *RecordingConn) SetFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

// IsClosed returns true once Close has been called
func (c *RecordingConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Messages returns a copy of every recorded message
func (c *RecordingConn) Messages() []model.OutboundMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.OutboundMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Events returns the recorded event names in order
func (c *RecordingConn) Events() []model.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.EventType, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m.Event)
	}
	return out
}

// Count returns how many messages of the event were recorded
func (c *RecordingConn) Count(event model.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.messages {
		if m.Event == event {
			n++
		}
	}
	return n
}

// Last decodes the data of the most recent message of the event into out.
// Returns false if no such message was recorded.
func (c *RecordingConn) Last(event model.EventType, out any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Event == event {
			return json.Unmarshal(c.messages[i].Data, out) == nil
		}
	}
	return false
}

// Reset forgets every recorded message
func (c *RecordingConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}
