package redis

import (
	"fmt"

	"github.com/mcoot/sudoku-race/internal/model"
)

// Key prefix for all race data
const keyPrefix = "sudokurace"

// resultsKey returns the Redis key for the LIST of finished games in a room, oldest first
func resultsKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:results:%s", keyPrefix, roomID)
}
