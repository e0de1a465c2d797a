package model

import "time"

// GameOverReason explains how a game ended
type GameOverReason string

const (
	ReasonCompleted GameOverReason = "completed" // Winner filled every blank cell
	ReasonErrors    GameOverReason = "errors"    // Loser reached MaxErrors strikes
)

// GameResult is the archived record of a finished game
type GameResult struct {
	RoomID         RoomID         `json:"room_id"`
	PuzzleID       PuzzleID       `json:"puzzle_id"`
	Difficulty     Difficulty     `json:"difficulty"`
	Winner         Role           `json:"winner"`
	WinnerID       PlayerID       `json:"winner_id"`
	WinnerNickname string         `json:"winner_nickname"`
	Reason         GameOverReason `json:"reason"`
	Timers         Timers         `json:"timers"`
	FinishedAt     time.Time      `json:"finished_at"`
}
