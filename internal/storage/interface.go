package storage

import (
	"context"

	"github.com/mcoot/sudoku-race/internal/model"
)

// Storage defines the interface for the finished-game archive.
// Live room state never goes through here.
type Storage interface {
	// Result operations
	SaveResult(ctx context.Context, result *model.GameResult) error
	GetResultsForRoom(ctx context.Context, roomID model.RoomID) ([]*model.GameResult, error)
	DeleteResultsForRoom(ctx context.Context, roomID model.RoomID) error
}
