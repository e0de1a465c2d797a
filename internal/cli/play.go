package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

const playHelp = `Commands:
  ready               mark yourself ready
  fill <row> <col> <value>
                      write a digit (1-9) into a blank cell
  erase <row> <col>   clear one of your cells
  board               print your board
  restart             start a new game in this room
  reconnect           rebind this connection to your seat
  help                show this help
  quit                disconnect`

func newPlayCmd() *cobra.Command {
	var (
		reconnect bool
		heartbeat time.Duration
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Race in your saved seat over the websocket protocol",
		Long: `Connect to /ws, take the saved seat and read commands from stdin.

` + playHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" || cfg.RoomID == "" {
				return fmt.Errorf("no saved seat; run 'room create' or 'room join' first, or pass --room and --token")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return play(ctx, os.Stdin, NewOutput(cfg.Output), reconnect, heartbeat)
		},
	}

	cmd.Flags().BoolVar(&reconnect, "reconnect", false, "Resume an existing seat instead of joining")
	cmd.Flags().DurationVar(&heartbeat, "heartbeat", 5*time.Second, "Heartbeat interval")

	return cmd
}

// frame is one outbound protocol envelope
type frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// inbound is one server envelope with its data kept raw
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// websocketURL maps the HTTP server URL onto the /ws endpoint
func websocketURL(server string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

// parseCommand turns one line of user input into a protocol frame.
// It returns a nil frame for local commands and for blank lines.
func parseCommand(line, token string) (*frame, string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, "", nil
	}

	name := strings.ToLower(fields[0])
	args := fields[1:]
	tokenOnly := func(event string) (*frame, string, error) {
		if len(args) != 0 {
			return nil, "", fmt.Errorf("%s takes no arguments", name)
		}
		return &frame{Event: event, Data: map[string]any{"player_token": token}}, name, nil
	}

	switch name {
	case "ready":
		return tokenOnly("ready")
	case "restart":
		return tokenOnly("restart_game")
	case "reconnect":
		return tokenOnly("reconnect")
	case "fill", "erase":
		want, usage := 3, "fill <row> <col> <value>"
		if name == "erase" {
			want, usage = 2, "erase <row> <col>"
		}
		if len(args) != want {
			return nil, "", fmt.Errorf("usage: %s", usage)
		}
		nums := make([]int, 0, 3)
		for _, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return nil, "", fmt.Errorf("%q is not a number", a)
			}
			nums = append(nums, n)
		}
		if name == "erase" {
			nums = append(nums, 0)
		}
		return &frame{Event: "fill_cell", Data: map[string]any{
			"player_token": token,
			"row":          nums[0],
			"col":          nums[1],
			"value":        nums[2],
		}}, name, nil
	case "board", "help", "quit", "exit":
		return nil, name, nil
	default:
		return nil, "", fmt.Errorf("unknown command %q (try help)", name)
	}
}

// playSession holds the connection and the player's view of the board
type playSession struct {
	conn *websocket.Conn
	out  *Output

	writeMu sync.Mutex

	mu       sync.Mutex
	puzzle   [][]int
	progress [][]int
}

func (s *playSession) write(f *frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteJSON(f)
}

func play(ctx context.Context, in io.Reader, out *Output, reconnect bool, heartbeat time.Duration) error {
	wsURL, err := websocketURL(cfg.ServerURL)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	s := &playSession{conn: conn, out: out}

	join := &frame{Event: "join_room", Data: map[string]any{"room_id": cfg.RoomID, "player_token": cfg.Token}}
	if reconnect {
		join = &frame{Event: "reconnect", Data: map[string]any{"player_token": cfg.Token}}
	}
	if err := s.write(join); err != nil {
		return fmt.Errorf("failed to join: %w", err)
	}

	readDone := make(chan error, 1)
	go func() { readDone <- s.readLoop() }()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	if out.format != "json" {
		out.PrintMessage(fmt.Sprintf("Connected to room %s (type help for commands)", cfg.RoomID))
	}

	for {
		select {
		case <-ctx.Done():
			return s.close()
		case err := <-readDone:
			if err != nil {
				return err
			}
			return nil
		case <-ticker.C:
			if err := s.write(&frame{Event: "heartbeat", Data: map[string]any{"player_token": cfg.Token}}); err != nil {
				return fmt.Errorf("heartbeat failed: %w", err)
			}
		case line, ok := <-lines:
			if !ok {
				return s.close()
			}
			f, name, err := parseCommand(line, cfg.Token)
			if err != nil {
				out.PrintError(err)
				continue
			}
			switch name {
			case "quit", "exit":
				return s.close()
			case "help":
				out.PrintMessage(playHelp)
			case "board":
				s.printBoard()
			}
			if f != nil {
				if err := s.write(f); err != nil {
					return fmt.Errorf("send failed: %w", err)
				}
			}
		}
	}
}

func (s *playSession) close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return nil
}

func (s *playSession) readLoop() error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		if s.out.format == "json" {
			fmt.Fprintln(s.out.w, string(data))
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		line := s.apply(msg)
		if s.out.format != "json" && line != "" {
			fmt.Fprintf(s.out.w, "[%s] %s\n", time.Now().Format("15:04:05"), line)
		}
	}
}

// apply updates the local board from a server event and describes it
func (s *playSession) apply(msg inbound) string {
	switch msg.Event {
	case "game_start":
		var p struct {
			Difficulty string  `json:"difficulty"`
			Puzzle     [][]int `json:"puzzle"`
		}
		if json.Unmarshal(msg.Data, &p) == nil {
			s.reset(p.Puzzle, nil)
			s.printBoard()
			return fmt.Sprintf("game started (%s)", p.Difficulty)
		}
	case "state_sync":
		var p struct {
			Status   string  `json:"status"`
			Puzzle   [][]int `json:"puzzle"`
			Progress [][]int `json:"progress"`
			Errors   int     `json:"errors"`
			Timers   Timers  `json:"timers"`
		}
		if json.Unmarshal(msg.Data, &p) == nil {
			s.reset(p.Puzzle, p.Progress)
			s.printBoard()
			return fmt.Sprintf("synced: %s, %d errors, host %s guest %s",
				p.Status, p.Errors, formatSeconds(p.Timers.Host), formatSeconds(p.Timers.Guest))
		}
	case "cell_result":
		var p struct {
			Row     int  `json:"row"`
			Col     int  `json:"col"`
			Value   int  `json:"value"`
			Correct bool `json:"correct"`
			Errors  int  `json:"errors"`
			Filled  int  `json:"filled"`
		}
		if json.Unmarshal(msg.Data, &p) == nil {
			if !p.Correct {
				return fmt.Sprintf("%d at (%d,%d) is wrong, %d errors", p.Value, p.Row, p.Col, p.Errors)
			}
			s.setCell(p.Row, p.Col, p.Value)
			return fmt.Sprintf("(%d,%d) = %d, %d filled", p.Row, p.Col, p.Value, p.Filled)
		}
	case "timer_update":
		// Too chatty for text output
		return ""
	}
	return fmt.Sprintf("%s %s", msg.Event, compact(msg.Data))
}

func (s *playSession) reset(puzzle, progress [][]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puzzle = puzzle
	s.progress = progress
	if s.progress == nil {
		s.progress = make([][]int, len(puzzle))
		for i := range s.progress {
			s.progress[i] = make([]int, len(puzzle[i]))
		}
	}
}

func (s *playSession) setCell(row, col, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || row >= len(s.progress) || col < 0 || col >= len(s.progress[row]) {
		return
	}
	s.progress[row][col] = value
}

// board overlays the player's progress on the givens
func (s *playSession) board() [][]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid := make([][]int, len(s.puzzle))
	for r := range s.puzzle {
		grid[r] = append([]int(nil), s.puzzle[r]...)
		for c := range grid[r] {
			if grid[r][c] == 0 && r < len(s.progress) && c < len(s.progress[r]) {
				grid[r][c] = s.progress[r][c]
			}
		}
	}
	return grid
}

func (s *playSession) printBoard() {
	if s.out.format == "json" {
		return
	}
	s.out.printGrid(s.board())
}

func compact(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	return strings.ReplaceAll(string(data), "\n", " ")
}
