package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/sudoku-race/internal/api/apierr"
	"github.com/mcoot/sudoku-race/internal/api/request"
	"github.com/mcoot/sudoku-race/internal/api/response"
	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/session"
	"github.com/mcoot/sudoku-race/internal/storage"
	"github.com/mcoot/sudoku-race/internal/web/sse"
)

// RoomHandler handles room-related endpoints
type RoomHandler struct {
	store   *session.Store
	storage storage.Storage
	engine  sse.Engine
	logger  *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(store *session.Store, storage storage.Storage, engine sse.Engine, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		store:   store,
		storage: storage,
		engine:  engine,
		logger:  logger,
	}
}

// Create handles POST /api/room/create
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if !decodeBody(w, r, &req, false) {
		return
	}

	room, host, err := h.store.CreateRoom(req.PlayerName, req.Difficulty)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SeatFromModel(room, host))
}

// Join handles POST /api/room/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRoomRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	if len(req.RoomID) != model.RoomIDLength {
		apierr.WriteError(w, apierr.NewInvalidRequestError("room_id must be 6 characters"))
		return
	}

	room, guest, err := h.store.JoinRoom(model.RoomID(req.RoomID), req.PlayerName)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SeatFromModel(room, guest))
}

// Info handles GET /api/room/info?room_id=
func (h *RoomHandler) Info(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}

	room, err := h.store.Snapshot(roomID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomInfoFromModel(room))
}

// History handles GET /api/room/history?room_id=
// A live room with no finished games returns an empty list.
func (h *RoomHandler) History(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}

	results, err := h.storage.GetResultsForRoom(r.Context(), roomID)
	switch {
	case errors.Is(err, model.ErrResultsNotFound):
		if !h.store.Exists(roomID) {
			apierr.WriteError(w, model.ErrRoomNotFound)
			return
		}
		results = nil
	case err != nil:
		h.logger.Error("failed to load results",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()))
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HistoryFromModel(roomID, results))
}

// Events handles GET /api/room/events?room_id=
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	roomID, ok := roomIDParam(w, r)
	if !ok {
		return
	}

	if err := sse.ServeSSE(w, r, h.engine, roomID, h.logger); err != nil {
		apierr.WriteError(w, err)
	}
}
