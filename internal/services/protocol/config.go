package protocol

import "time"

// Config holds the engine's background task timings
type Config struct {
	// TimerInterval is the period of timer_update broadcasts while a room is playing
	TimerInterval time.Duration

	// SweepInterval is the period of the process-wide liveness sweep
	SweepInterval time.Duration

	// HeartbeatTimeout marks an online player offline when exceeded without a heartbeat
	HeartbeatTimeout time.Duration

	// ReconnectTimeout is the delay before the opponent is told a player has not come back
	ReconnectTimeout time.Duration

	// IdleRoomTTL is how long a room with nobody online survives without activity. Zero disables reaping.
	IdleRoomTTL time.Duration
}

// DefaultConfig returns the standard timings
func DefaultConfig() Config {
	return Config{
		TimerInterval:    time.Second,
		SweepInterval:    5 * time.Second,
		HeartbeatTimeout: 15 * time.Second,
		ReconnectTimeout: 300 * time.Second,
		IdleRoomTTL:      time.Hour,
	}
}
