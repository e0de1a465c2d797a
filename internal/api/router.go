package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/sudoku-race/internal/api/apierr"
	"github.com/mcoot/sudoku-race/internal/api/handler"
	"github.com/mcoot/sudoku-race/internal/api/middleware"
	"github.com/mcoot/sudoku-race/internal/services/puzzle"
	"github.com/mcoot/sudoku-race/internal/services/session"
	"github.com/mcoot/sudoku-race/internal/storage"
	"github.com/mcoot/sudoku-race/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Store   *session.Store
	Puzzles puzzle.Generator
	Storage storage.Storage
	Watcher sse.Engine

	// WebSocket serves the player protocol at /ws. Optional.
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(cfg.Store, cfg.Storage, cfg.Watcher, cfg.Logger.With(slog.String("component", "api")))
	puzzleHandler := handler.NewPuzzleHandler(cfg.Puzzles)

	for _, mw := range middleware.Chain(cfg.Logger) {
		r.Use(mw)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", handler.Health).Methods(http.MethodGet)

	api.HandleFunc("/room/create", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/room/join", roomHandler.Join).Methods(http.MethodPost)
	api.HandleFunc("/room/info", roomHandler.Info).Methods(http.MethodGet)
	api.HandleFunc("/room/history", roomHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/room/events", roomHandler.Events).Methods(http.MethodGet)

	api.HandleFunc("/puzzle/generate", puzzleHandler.Generate).Methods(http.MethodPost)

	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})

	return r
}
