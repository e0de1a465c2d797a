package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/registry"
)

// Engine is the protocol surface a player connection drives
type Engine interface {
	Connect(ctx context.Context, conn registry.Conn)
	Dispatch(ctx context.Context, conn registry.Conn, msg model.InboundMessage)
	Disconnect(ctx context.Context, conn registry.Conn)
}

// Handler upgrades HTTP requests to player WebSocket connections
type Handler struct {
	engine   Engine
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients are native apps and browsers on other origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP upgrades the connection and runs it until the peer goes away
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(uuid.NewString(), conn, h.logger)
	h.logger.Info("websocket connected",
		slog.String("conn_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))

	ctx := context.WithoutCancel(r.Context())
	go client.writePump()
	h.engine.Connect(ctx, client)
	client.readPump(ctx, h.engine)

	h.logger.Info("websocket disconnected", slog.String("conn_id", client.ID()))
}

// Ensure Client implements registry.Conn
var _ registry.Conn = (*Client)(nil)
