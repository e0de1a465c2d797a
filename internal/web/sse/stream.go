package sse

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/registry"
)

// Time between keepalive comments
const pingPeriod = 30 * time.Second

// Engine is the subset of the protocol engine a watcher stream needs
type Engine interface {
	Watch(conn registry.Conn, roomID model.RoomID) error
	Unwatch(conn registry.Conn)
}

// ServeSSE streams a room's broadcast events until the client leaves or the room is reaped
func ServeSSE(w http.ResponseWriter, r *http.Request, engine Engine, roomID model.RoomID, logger *slog.Logger) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("streaming unsupported")
	}

	watcher := NewWatcher(roomID)
	if err := engine.Watch(watcher, roomID); err != nil {
		return err
	}
	defer engine.Unwatch(watcher)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	hello, _ := json.Marshal(map[string]model.RoomID{"room_id": roomID})
	_, _ = w.Write(formatSSEMessage("watching", string(hello)))
	flusher.Flush()

	logger.Info("sse watcher attached",
		slog.String("room_id", string(roomID)),
		slog.String("conn_id", watcher.ID()))
	started := time.Now()
	defer func() {
		logger.Info("sse watcher detached",
			slog.String("room_id", string(roomID)),
			slog.String("conn_id", watcher.ID()),
			slog.Duration("connection_duration", time.Since(started)))
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-watcher.send:
			if !ok {
				// Room was reaped
				return nil
			}
			if _, err := w.Write(message); err != nil {
				return nil
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return nil
			}
			flusher.Flush()

		case <-r.Context().Done():
			return nil
		}
	}
}
