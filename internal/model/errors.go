package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrPlayersNotReady = errors.New("both players must be ready")

	// Authentication errors
	ErrInvalidToken = errors.New("invalid player token")

	// Request errors
	ErrMalformedRequest = errors.New("malformed request")

	// Results errors
	ErrResultsNotFound = errors.New("no results for room")
)
