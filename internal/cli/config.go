package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	RoomID    string
	SeatFile  string
	Output    string
	Verbose   bool
}

// Seat is what create and join persist so later commands can act as that player
type Seat struct {
	RoomID      string `json:"room_id"`
	PlayerToken string `json:"player_token"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("SUDOKURACE_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("SUDOKURACE_TOKEN"),
		RoomID:    os.Getenv("SUDOKURACE_ROOM"),
		SeatFile:  getEnvOrDefault("SUDOKURACE_SEAT_FILE", defaultSeatFile()),
		Output:    "text",
		Verbose:   false,
	}
}

// LoadSeat fills Token and RoomID from the seat file where they are not already set
func (c *Config) LoadSeat() error {
	if c.Token != "" && c.RoomID != "" {
		return nil
	}

	data, err := os.ReadFile(c.SeatFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No seat file is fine
		}
		return err
	}

	var seat Seat
	if err := json.Unmarshal(data, &seat); err != nil {
		return fmt.Errorf("corrupt seat file %s: %w", c.SeatFile, err)
	}
	if c.Token == "" {
		c.Token = seat.PlayerToken
	}
	if c.RoomID == "" {
		c.RoomID = seat.RoomID
	}
	return nil
}

// SaveSeat saves the seat to the seat file
func (c *Config) SaveSeat(seat Seat) error {
	c.Token = seat.PlayerToken
	c.RoomID = seat.RoomID

	dir := filepath.Dir(c.SeatFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(seat)
	if err != nil {
		return err
	}
	return os.WriteFile(c.SeatFile, data, 0600)
}

func defaultSeatFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sudokurace/seat.json"
	}
	return filepath.Join(home, ".sudokurace", "seat.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
