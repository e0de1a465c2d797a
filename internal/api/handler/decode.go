package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/sudoku-race/internal/api/apierr"
	"github.com/mcoot/sudoku-race/internal/model"
)

// Request bodies are a couple of short strings
const maxBodyBytes = 4 << 10

// decodeBody reads a JSON body into dst and writes invalid_request on failure.
// An empty body is accepted only when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		apierr.WriteError(w, apierr.NewInvalidRequestError("request body too large"))
		return false
	}
	apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
	return false
}

// roomIDParam reads the required room_id query parameter
func roomIDParam(w http.ResponseWriter, r *http.Request) (model.RoomID, bool) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("room_id is required"))
		return "", false
	}
	return model.RoomID(roomID), true
}
