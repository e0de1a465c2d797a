package response

import (
	"time"

	"github.com/mcoot/sudoku-race/internal/model"
)

// Health is the response for the health check
type Health struct {
	OK bool `json:"ok"`
}

// Seat is the response for create and join: the caller's credentials for the protocol
type Seat struct {
	RoomID      string `json:"room_id"`
	PlayerID    string `json:"player_id"`
	PlayerToken string `json:"player_token"`
	Role        string `json:"role"`
	Difficulty  string `json:"difficulty"`
}

// SeatFromModel builds a Seat for the given player
func SeatFromModel(room *model.Room, p *model.Player) Seat {
	return Seat{
		RoomID:      string(room.ID),
		PlayerID:    string(p.ID),
		PlayerToken: p.Token,
		Role:        string(room.RoleOf(p)),
		Difficulty:  string(room.Difficulty),
	}
}

// PlayerSummary is the public view of a seated player
type PlayerSummary struct {
	Nickname string `json:"nickname"`
	Online   bool   `json:"online"`
}

// RoomInfo is the public view of a room. The solution is never included.
type RoomInfo struct {
	RoomID     string         `json:"room_id"`
	Status     string         `json:"status"`
	Difficulty string         `json:"difficulty"`
	Host       PlayerSummary  `json:"host"`
	Guest      *PlayerSummary `json:"guest"`
	PuzzleID   string         `json:"puzzle_id"`
	Puzzle     [][]int        `json:"puzzle"`
}

// RoomInfoFromModel converts a model.Room
func RoomInfoFromModel(room *model.Room) RoomInfo {
	info := RoomInfo{
		RoomID:     string(room.ID),
		Status:     string(room.Status),
		Difficulty: string(room.Difficulty),
		Host:       PlayerSummary{Nickname: room.Host.Nickname, Online: room.Host.IsOnline()},
		PuzzleID:   string(room.PuzzleID),
	}
	if room.Guest != nil {
		info.Guest = &PlayerSummary{Nickname: room.Guest.Nickname, Online: room.Guest.IsOnline()}
	}
	if room.Status.HasPuzzle() && room.Puzzle != nil {
		info.Puzzle = room.Puzzle.Rows()
	}
	return info
}

// Result is one finished game in a room's history
type Result struct {
	PuzzleID       string       `json:"puzzle_id"`
	Difficulty     string       `json:"difficulty"`
	Winner         string       `json:"winner"`
	WinnerNickname string       `json:"winner_nickname"`
	Reason         string       `json:"reason"`
	Timers         model.Timers `json:"timers"`
	FinishedAt     time.Time    `json:"finished_at"`
}

// History is the response for a room's finished games, oldest first
type History struct {
	RoomID  string   `json:"room_id"`
	Results []Result `json:"results"`
}

// HistoryFromModel converts stored results
func HistoryFromModel(roomID model.RoomID, results []*model.GameResult) History {
	h := History{RoomID: string(roomID), Results: make([]Result, len(results))}
	for i, r := range results {
		h.Results[i] = Result{
			PuzzleID:       string(r.PuzzleID),
			Difficulty:     string(r.Difficulty),
			Winner:         string(r.Winner),
			WinnerNickname: r.WinnerNickname,
			Reason:         string(r.Reason),
			Timers:         r.Timers,
			FinishedAt:     r.FinishedAt,
		}
	}
	return h
}

// Puzzle is the response for a stateless puzzle preview
type Puzzle struct {
	Puzzle     [][]int `json:"puzzle"`
	Difficulty string  `json:"difficulty"`
	PuzzleID   string  `json:"puzzle_id"`
}
