package protocol

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/sudoku-race/internal/dependencies/clock"
	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/registry"
	"github.com/mcoot/sudoku-race/internal/services/session"
	"github.com/mcoot/sudoku-race/internal/storage"
)

// Engine runs the real-time race protocol on top of the session store.
//
// Lock order is room lock, then tasksMu, then the registry's lock. Every handler
// mutates a room only inside store.WithRoom*, so events for one room apply one at a time.
type Engine struct {
	store    *session.Store
	registry *registry.Registry
	storage  storage.Storage
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	tasksMu   sync.Mutex
	timers    map[model.RoomID]*timerTask
	watchdogs map[*time.Timer]struct{}
	closed    bool

	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a new Engine
func New(
	store *session.Store,
	reg *registry.Registry,
	storage storage.Storage,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:     store,
		registry:  reg,
		storage:   storage,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "protocol")),
		timers:    make(map[model.RoomID]*timerTask),
		watchdogs: make(map[*time.Timer]struct{}),
		stopCh:    make(chan struct{}),
	}
}

// Run drives the liveness sweep until ctx is done or the engine is closed
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	e.logger.Info("liveness sweep started",
		slog.Duration("interval", e.cfg.SweepInterval),
		slog.Duration("heartbeat_timeout", e.cfg.HeartbeatTimeout))

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Close stops every timer broadcaster and pending watchdog, then waits for broadcasters to exit
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.tasksMu.Lock()
		e.closed = true
		close(e.stopCh)
		for t := range e.watchdogs {
			t.Stop()
		}
		e.watchdogs = make(map[*time.Timer]struct{})
		e.tasksMu.Unlock()
	})
	e.wg.Wait()
}

// Connect registers a new connection and acknowledges it
func (e *Engine) Connect(ctx context.Context, conn registry.Conn) {
	e.registry.Add(conn)
	e.send(conn.ID(), model.EventConnected, model.ConnectedPayload{OK: true})
}

// Disconnect unregisters a connection. If it was its player's live binding the player goes
// offline; a connection its player has since replaced is dropped without touching the room.
func (e *Engine) Disconnect(ctx context.Context, conn registry.Conn) {
	token, roomID, current := e.registry.Remove(conn.ID())
	if token == "" {
		return
	}
	if !current {
		e.logger.Debug("stale connection closed", slog.String("conn_id", conn.ID()))
		return
	}

	_ = e.store.WithRoom(roomID, func(room *model.Room) error {
		player := room.Player(token)
		// Rebound between Remove and taking the room lock, or already swept offline
		if player == nil || e.registry.HasConnection(token) || !player.IsOnline() {
			return nil
		}
		e.markOffline(room, player)
		return nil
	})
}

// Dispatch decodes an inbound event and routes it to its handler.
// Undecodable or unknown events are dropped.
func (e *Engine) Dispatch(ctx context.Context, conn registry.Conn, msg model.InboundMessage) {
	switch msg.Event {
	case model.EventJoinRoom:
		var p model.JoinRoomPayload
		if e.decode(msg, &p) {
			e.JoinRoom(ctx, conn, p)
		}
	case model.EventReady:
		var p model.TokenPayload
		if e.decode(msg, &p) {
			e.Ready(ctx, conn, p)
		}
	case model.EventFillCell:
		var p model.FillCellPayload
		if e.decode(msg, &p) {
			e.FillCell(ctx, conn, p)
		}
	case model.EventHeartbeat:
		var p model.TokenPayload
		if e.decode(msg, &p) {
			e.Heartbeat(ctx, conn, p)
		}
	case model.EventReconnect:
		var p model.TokenPayload
		if e.decode(msg, &p) {
			e.Reconnect(ctx, conn, p)
		}
	case model.EventRestartGame:
		var p model.TokenPayload
		if e.decode(msg, &p) {
			e.RestartGame(ctx, conn, p)
		}
	default:
		e.logger.Debug("unknown event dropped",
			slog.String("conn_id", conn.ID()),
			slog.String("event", string(msg.Event)))
	}
}

// Watch subscribes a read-only connection to a room's broadcasts
func (e *Engine) Watch(conn registry.Conn, roomID model.RoomID) error {
	if !e.store.Exists(roomID) {
		return model.ErrRoomNotFound
	}
	e.registry.Watch(conn, roomID)
	return nil
}

// Unwatch removes a read-only connection
func (e *Engine) Unwatch(conn registry.Conn) {
	e.registry.Remove(conn.ID())
}

// Sweep marks silent players offline, then reaps idle rooms along with their
// archived results and subscriptions
func (e *Engine) Sweep(ctx context.Context) {
	for _, id := range e.store.RoomIDs() {
		_ = e.store.WithRoom(id, func(room *model.Room) error {
			now := e.clock.Now()
			for _, p := range room.Players() {
				if p.IsOnline() && now.Sub(p.LastSeenAt) > e.cfg.HeartbeatTimeout {
					e.logger.Info("heartbeat timed out",
						slog.String("room_id", string(room.ID)),
						slog.String("player_id", string(p.ID)))
					e.markOffline(room, p)
				}
			}
			return nil
		})
	}

	for _, id := range e.store.ReapIdle(e.cfg.IdleRoomTTL) {
		e.registry.DropRoom(id)
		if err := e.storage.DeleteResultsForRoom(ctx, id); err != nil {
			e.logger.Warn("failed to delete results for reaped room",
				slog.String("room_id", string(id)),
				slog.String("error", err.Error()))
		}
	}
}

// markOffline records a lost player, pauses a running game, and arms the reconnect watchdog.
// Caller holds the room lock.
func (e *Engine) markOffline(room *model.Room, player *model.Player) {
	player.MarkOffline(e.clock.Now())
	if room.Status == model.RoomStatusPlaying {
		e.store.PauseGame(room)
		e.logger.Info("game paused",
			slog.String("room_id", string(room.ID)),
			slog.String("player_id", string(player.ID)))
	}
	e.broadcast(room.ID, model.EventPlayerDisconnected, model.PlayerRefPayload{PlayerID: player.ID})
	e.scheduleWatchdog(room.ID, player.Token)
}

func (e *Engine) decode(msg model.InboundMessage, out any) bool {
	if err := json.Unmarshal(msg.Data, out); err != nil {
		e.logger.Debug("malformed event dropped",
			slog.String("event", string(msg.Event)),
			slog.String("error", err.Error()))
		return false
	}
	return true
}
