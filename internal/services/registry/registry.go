package registry

import (
	"log/slog"
	"sync"

	"github.com/mcoot/sudoku-race/internal/model"
)

// Conn is a live transport connection the registry can deliver to.
// Send must never block; it returns false when the message was dropped.
type Conn interface {
	ID() string
	Send(msg model.OutboundMessage) bool
	Close()
}

// binding records what a connection is attached to
type binding struct {
	conn  Conn
	token string // empty for watchers
	room  model.RoomID
}

// Registry maps live connections to player tokens and rooms
type Registry struct {
	mu      sync.RWMutex
	conns   map[string]*binding
	current map[string]string // token -> current connection id
	rooms   map[model.RoomID]map[string]Conn
	logger  *slog.Logger
}

// New creates an empty Registry
func New(logger *slog.Logger) *Registry {
	return &Registry{
		conns:   make(map[string]*binding),
		current: make(map[string]string),
		rooms:   make(map[model.RoomID]map[string]Conn),
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Add registers a new connection with no binding
func (r *Registry) Add(conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[conn.ID()]; ok {
		return
	}
	r.conns[conn.ID()] = &binding{conn: conn}
}

// Bind attaches a connection to a player token and enters it into the room.
// A connection previously bound to the token stops receiving room broadcasts.
func (r *Registry) Bind(connID, token string, roomID model.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.conns[connID]
	if !ok {
		return false
	}

	if prev, ok := r.current[token]; ok && prev != connID {
		if old := r.conns[prev]; old != nil {
			r.leaveLocked(prev, old.room)
			old.room = ""
		}
	}

	if b.room != "" && b.room != roomID {
		r.leaveLocked(connID, b.room)
	}
	if b.token != "" && b.token != token && r.current[b.token] == connID {
		delete(r.current, b.token)
	}

	b.token = token
	b.room = roomID
	r.current[token] = connID
	r.joinLocked(b.conn, roomID)
	return true
}

// Watch registers a read-only connection that receives the room's broadcasts
func (r *Registry) Watch(conn Conn, roomID model.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID()] = &binding{conn: conn, room: roomID}
	r.joinLocked(conn, roomID)
}

// Remove unregisters a connection. current is true if it was the token's live binding,
// in which case the token no longer has a connection.
func (r *Registry) Remove(connID string) (token string, roomID model.RoomID, current bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.conns[connID]
	if !ok {
		return "", "", false
	}
	delete(r.conns, connID)
	if b.room != "" {
		r.leaveLocked(connID, b.room)
	}

	if b.token != "" && r.current[b.token] == connID {
		delete(r.current, b.token)
		current = true
	}
	return b.token, b.room, current
}

// IsCurrent returns true if the connection is the token's live binding
func (r *Registry) IsCurrent(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[connID]
	return ok && b.token != "" && r.current[b.token] == connID
}

// HasConnection returns true if the token has a live binding
func (r *Registry) HasConnection(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.current[token]
	return ok
}

// Send delivers a message to one connection
func (r *Registry) Send(connID string, msg model.OutboundMessage) bool {
	r.mu.RLock()
	b, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.deliver(b.conn, msg)
}

// SendToToken delivers a message to the token's live connection, if any
func (r *Registry) SendToToken(token string, msg model.OutboundMessage) bool {
	r.mu.RLock()
	connID, ok := r.current[token]
	var conn Conn
	if ok {
		conn = r.conns[connID].conn
	}
	r.mu.RUnlock()
	if conn == nil {
		return false
	}
	return r.deliver(conn, msg)
}

// Broadcast delivers a message to every connection in the room, watchers included.
// Returns the number of connections the message was queued for.
func (r *Registry) Broadcast(roomID model.RoomID, msg model.OutboundMessage) int {
	r.mu.RLock()
	members := make([]Conn, 0, len(r.rooms[roomID]))
	for _, conn := range r.rooms[roomID] {
		members = append(members, conn)
	}
	r.mu.RUnlock()

	sent := 0
	dropped := 0
	for _, conn := range members {
		if r.deliver(conn, msg) {
			sent++
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Warn("broadcast partial failure",
			slog.String("room_id", string(roomID)),
			slog.String("event", string(msg.Event)),
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
	return sent
}

// DropRoom removes every subscription to the room and closes its watchers
func (r *Registry) DropRoom(roomID model.RoomID) {
	r.mu.Lock()
	members := r.rooms[roomID]
	delete(r.rooms, roomID)
	var watchers []Conn
	for connID := range members {
		b := r.conns[connID]
		if b == nil {
			continue
		}
		b.room = ""
		if b.token == "" {
			watchers = append(watchers, b.conn)
			delete(r.conns, connID)
		}
	}
	r.mu.Unlock()

	for _, w := range watchers {
		w.Close()
	}
	if len(members) > 0 {
		r.logger.Info("room subscriptions dropped",
			slog.String("room_id", string(roomID)),
			slog.Int("connections", len(members)))
	}
}

// ConnCount returns the number of registered connections
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// RoomSize returns the number of connections subscribed to the room
func (r *Registry) RoomSize(roomID model.RoomID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

func (r *Registry) deliver(conn Conn, msg model.OutboundMessage) bool {
	if conn.Send(msg) {
		return true
	}
	r.logger.Warn("message dropped - connection buffer full",
		slog.String("conn_id", conn.ID()),
		slog.String("event", string(msg.Event)))
	return false
}

func (r *Registry) joinLocked(conn Conn, roomID model.RoomID) {
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]Conn)
		r.rooms[roomID] = members
	}
	members[conn.ID()] = conn
}

func (r *Registry) leaveLocked(connID string, roomID model.RoomID) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}
