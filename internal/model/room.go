package model

import "time"

// RoomID is the 6-digit code players use to join a room
type RoomID string

// RoomIDLength is the number of digits in a room code
const RoomIDLength = 6

// PuzzleID identifies a single generated puzzle instance
type PuzzleID string

// RoomStatus represents the current state of a room
type RoomStatus string

const (
	RoomStatusWaiting  RoomStatus = "waiting"  // No puzzle, players readying up
	RoomStatusPlaying  RoomStatus = "playing"  // Race in progress, timers running
	RoomStatusPaused   RoomStatus = "paused"   // A player dropped, timers banked
	RoomStatusFinished RoomStatus = "finished" // Winner decided, timers frozen
)

// HasPuzzle returns true for statuses that carry a puzzle
func (s RoomStatus) HasPuzzle() bool {
	return s == RoomStatusPlaying || s == RoomStatusPaused || s == RoomStatusFinished
}

// Role names a player's seat in the room
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Room is a two-player race container.
// Solution is never sent to clients.
type Room struct {
	ID         RoomID
	Host       *Player
	Guest      *Player // nil until someone joins
	Difficulty Difficulty
	Status     RoomStatus

	PuzzleID PuzzleID
	Puzzle   *Grid // nil while waiting
	Solution *Grid // nil while waiting

	CreatedAt time.Time
	UpdatedAt time.Time
	StartedAt *time.Time
	PausedAt  *time.Time
}

// Players returns the seated players, host first
func (r *Room) Players() []*Player {
	if r.Guest == nil {
		return []*Player{r.Host}
	}
	return []*Player{r.Host, r.Guest}
}

// Player returns the player holding the token, or nil
func (r *Room) Player(token string) *Player {
	if token == "" {
		return nil
	}
	if r.Host != nil && r.Host.Token == token {
		return r.Host
	}
	if r.Guest != nil && r.Guest.Token == token {
		return r.Guest
	}
	return nil
}

// Opponent returns the other player relative to the token holder, or nil
func (r *Room) Opponent(token string) *Player {
	if token == "" {
		return nil
	}
	if r.Host != nil && r.Host.Token == token {
		return r.Guest
	}
	if r.Guest != nil && r.Guest.Token == token {
		return r.Host
	}
	return nil
}

// RoleOf returns the seat of the given player
func (r *Room) RoleOf(p *Player) Role {
	if r.Guest != nil && p == r.Guest {
		return RoleGuest
	}
	return RoleHost
}

// BothOnline returns true if a guest is seated and both players are connected
func (r *Room) BothOnline() bool {
	return r.Guest != nil && r.Host.IsOnline() && r.Guest.IsOnline()
}

// AnyOnline returns true if at least one player is connected
func (r *Room) AnyOnline() bool {
	for _, p := range r.Players() {
		if p.IsOnline() {
			return true
		}
	}
	return false
}

// Timers returns each seat's elapsed seconds
func (r *Room) Timers(now time.Time) Timers {
	t := Timers{Host: r.Host.ElapsedSeconds(now)}
	if r.Guest != nil {
		t.Guest = r.Guest.ElapsedSeconds(now)
	}
	return t
}

// Timers holds per-seat elapsed seconds
type Timers struct {
	Host  int `json:"host"`
	Guest int `json:"guest"`
}
