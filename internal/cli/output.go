package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter writing to stdout and stderr
func NewOutput(format string) *Output {
	return newOutputTo(format, os.Stdout, os.Stderr)
}

func newOutputTo(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case SeatResult:
		o.printSeat(v)
	case RoomInfo:
		o.printRoomInfo(v)
	case History:
		o.printHistory(v)
	case Puzzle:
		o.printPuzzle(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// SeatResult is the create/join response (matches API)
type SeatResult struct {
	RoomID      string `json:"room_id"`
	PlayerID    string `json:"player_id"`
	PlayerToken string `json:"player_token"`
	Role        string `json:"role"`
	Difficulty  string `json:"difficulty"`
}

// PlayerSummary response type
type PlayerSummary struct {
	Nickname string `json:"nickname"`
	Online   bool   `json:"online"`
}

// RoomInfo response type
type RoomInfo struct {
	RoomID     string         `json:"room_id"`
	Status     string         `json:"status"`
	Difficulty string         `json:"difficulty"`
	Host       PlayerSummary  `json:"host"`
	Guest      *PlayerSummary `json:"guest"`
	PuzzleID   string         `json:"puzzle_id"`
	Puzzle     [][]int        `json:"puzzle"`
}

// Timers response type, in whole seconds
type Timers struct {
	Host  int `json:"host"`
	Guest int `json:"guest"`
}

// Result response type
type Result struct {
	PuzzleID       string `json:"puzzle_id"`
	Difficulty     string `json:"difficulty"`
	Winner         string `json:"winner"`
	WinnerNickname string `json:"winner_nickname"`
	Reason         string `json:"reason"`
	Timers         Timers `json:"timers"`
	FinishedAt     string `json:"finished_at"`
}

// History response type
type History struct {
	RoomID  string   `json:"room_id"`
	Results []Result `json:"results"`
}

// Puzzle response type
type Puzzle struct {
	Puzzle     [][]int `json:"puzzle"`
	Difficulty string  `json:"difficulty"`
	PuzzleID   string  `json:"puzzle_id"`
}

// HealthResult response type
type HealthResult struct {
	OK bool `json:"ok"`
}

func (o *Output) printSeat(s SeatResult) {
	fmt.Fprintf(o.w, "Room: %s\n", s.RoomID)
	fmt.Fprintf(o.w, "Role: %s\n", s.Role)
	fmt.Fprintf(o.w, "Difficulty: %s\n", s.Difficulty)
	fmt.Fprintf(o.w, "Player: %s\n", s.PlayerID)
	fmt.Fprintf(o.w, "Token: %s\n", s.PlayerToken)
}

func (o *Output) printRoomInfo(r RoomInfo) {
	fmt.Fprintf(o.w, "Room: %s\n", r.RoomID)
	fmt.Fprintf(o.w, "Status: %s\n", r.Status)
	fmt.Fprintf(o.w, "Difficulty: %s\n", r.Difficulty)
	fmt.Fprintf(o.w, "Host: %s\n", seatLine(&r.Host))
	fmt.Fprintf(o.w, "Guest: %s\n", seatLine(r.Guest))
	if len(r.Puzzle) > 0 {
		fmt.Fprintf(o.w, "\nPuzzle %s:\n", r.PuzzleID)
		o.printGrid(r.Puzzle)
	}
}

func seatLine(p *PlayerSummary) string {
	if p == nil {
		return "(open)"
	}
	if p.Online {
		return p.Nickname + " [online]"
	}
	return p.Nickname + " [offline]"
}

func (o *Output) printHistory(h History) {
	if len(h.Results) == 0 {
		fmt.Fprintf(o.w, "No finished games in room %s\n", h.RoomID)
		return
	}
	fmt.Fprintf(o.w, "Room %s (%d games):\n", h.RoomID, len(h.Results))
	for i, r := range h.Results {
		fmt.Fprintf(o.w, "  %d. %s won (%s) on %s - host %s, guest %s\n",
			i+1, r.WinnerNickname, r.Reason, r.Difficulty,
			formatSeconds(r.Timers.Host), formatSeconds(r.Timers.Guest))
	}
}

func (o *Output) printPuzzle(p Puzzle) {
	fmt.Fprintf(o.w, "Puzzle: %s\n", p.PuzzleID)
	fmt.Fprintf(o.w, "Difficulty: %s\n\n", p.Difficulty)
	o.printGrid(p.Puzzle)
}

// printGrid renders a 9x9 grid with box separators; zero cells are blanks
func (o *Output) printGrid(grid [][]int) {
	if len(grid) == 0 {
		return
	}

	fmt.Fprintln(o.w, "     0 1 2   3 4 5   6 7 8")
	border := "   +-------+-------+-------+"
	for row, cells := range grid {
		if row%3 == 0 {
			fmt.Fprintln(o.w, border)
		}
		var b strings.Builder
		fmt.Fprintf(&b, " %d |", row)
		for col, v := range cells {
			if v == 0 {
				b.WriteString(" .")
			} else {
				fmt.Fprintf(&b, " %d", v)
			}
			if col%3 == 2 {
				b.WriteString(" |")
			}
		}
		fmt.Fprintln(o.w, b.String())
	}
	fmt.Fprintln(o.w, border)
}

func (o *Output) printHealthResult(h HealthResult) {
	if h.OK {
		fmt.Fprintln(o.w, "Status: ok")
	} else {
		fmt.Fprintln(o.w, "Status: unhealthy")
	}
}

func formatSeconds(total int) string {
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
