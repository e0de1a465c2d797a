package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// ConnectionState tracks whether a player currently has a live connection
type ConnectionState string

const (
	ConnectionOnline  ConnectionState = "online"
	ConnectionOffline ConnectionState = "offline"
)

// MaxErrors is the number of strikes that loses a game
const MaxErrors = 3

// Nickname length bounds
const (
	MinNicknameLength = 1
	MaxNicknameLength = 20
)

// Player is one side of a room.
// Token is the bearer credential for every protocol event and is never sent to the opponent.
type Player struct {
	ID       PlayerID
	Token    string
	Nickname string

	Connection     ConnectionState
	LastSeenAt     time.Time
	DisconnectedAt *time.Time

	// Timer banking: elapsed = TimerAccumulatedSeconds + (now - TimerStartedAt)
	TimerAccumulatedSeconds int
	TimerStartedAt          *time.Time

	Progress Grid
	Errors   int
	Ready    bool
}

// IsOnline returns true if the player has a live connection
func (p *Player) IsOnline() bool {
	return p.Connection == ConnectionOnline
}

// TimerRunning returns true if the player is actively timed
func (p *Player) TimerRunning() bool {
	return p.TimerStartedAt != nil
}

// ElapsedSeconds returns banked time plus whole seconds since the timer last started
func (p *Player) ElapsedSeconds(now time.Time) int {
	elapsed := p.TimerAccumulatedSeconds
	if p.TimerStartedAt != nil {
		if running := int(now.Sub(*p.TimerStartedAt) / time.Second); running > 0 {
			elapsed += running
		}
	}
	return elapsed
}

// StartTimer starts the timer at now, keeping any banked time
func (p *Player) StartTimer(now time.Time) {
	started := now
	p.TimerStartedAt = &started
}

// StopTimer banks the running time and clears the start stamp
func (p *Player) StopTimer(now time.Time) {
	if p.TimerStartedAt == nil {
		return
	}
	p.TimerAccumulatedSeconds = p.ElapsedSeconds(now)
	p.TimerStartedAt = nil
}

// MarkOnline records a live connection for the player
func (p *Player) MarkOnline(now time.Time) {
	p.Connection = ConnectionOnline
	p.DisconnectedAt = nil
	p.LastSeenAt = now
}

// MarkOffline records the loss of the player's connection
func (p *Player) MarkOffline(now time.Time) {
	disconnected := now
	p.Connection = ConnectionOffline
	p.DisconnectedAt = &disconnected
}

// ResetGameState clears everything tied to a single game
func (p *Player) ResetGameState() {
	p.Progress = Grid{}
	p.Errors = 0
	p.Ready = false
	p.TimerAccumulatedSeconds = 0
	p.TimerStartedAt = nil
}
