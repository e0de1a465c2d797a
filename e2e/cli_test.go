package e2e_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/sudoku-race/internal/factory"
	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/testutil"
)

var blank = model.Position{Row: 0, Col: 0}

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	seatFile   string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "sudokurace-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/sudokurace")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		seatFile:   filepath.Join(t.TempDir(), "seat.json"),
	}
}

// withSeatFile returns a runner sharing the binary but keeping its own saved seat
func (r *cliRunner) withSeatFile(t *testing.T) *cliRunner {
	return &cliRunner{
		binaryPath: r.binaryPath,
		serverURL:  r.serverURL,
		seatFile:   filepath.Join(t.TempDir(), "seat.json"),
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--seat-file", r.seatFile,
		"--output", "json",
	}, args...)
	return exec.Command(r.binaryPath, fullArgs...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func startTestServer(t *testing.T) (*factory.TestApp, *httptest.Server) {
	t.Helper()

	app := factory.NewTestApp(blank)
	server := httptest.NewServer(app.Handler)
	t.Cleanup(func() {
		server.Close()
		_ = app.Close()
	})
	return app, server
}

// Response types for JSON parsing
type seatResponse struct {
	RoomID      string `json:"room_id"`
	PlayerID    string `json:"player_id"`
	PlayerToken string `json:"player_token"`
	Role        string `json:"role"`
	Difficulty  string `json:"difficulty"`
}

type roomInfoResponse struct {
	RoomID     string `json:"room_id"`
	Status     string `json:"status"`
	Difficulty string `json:"difficulty"`
	Host       struct {
		Nickname string `json:"nickname"`
	} `json:"host"`
	Guest *struct {
		Nickname string `json:"nickname"`
	} `json:"guest"`
}

type historyResponse struct {
	RoomID  string `json:"room_id"`
	Results []struct {
		Winner         string `json:"winner"`
		WinnerNickname string `json:"winner_nickname"`
		Reason         string `json:"reason"`
	} `json:"results"`
}

type puzzleResponse struct {
	Puzzle     [][]int `json:"puzzle"`
	Difficulty string  `json:"difficulty"`
	PuzzleID   string  `json:"puzzle_id"`
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	_, ts := startTestServer(t)
	cli := newCLIRunner(t, ts.URL)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.True(t, resp.OK)
}

func TestCLI_RoomCommands(t *testing.T) {
	_, ts := startTestServer(t)
	host := newCLIRunner(t, ts.URL)
	guest := host.withSeatFile(t)

	output, err := host.run("room", "create", "alice", "--difficulty", "hard")
	require.NoError(t, err, "output: %s", output)

	var hostSeat seatResponse
	require.NoError(t, json.Unmarshal([]byte(output), &hostSeat))
	assert.Equal(t, "123456", hostSeat.RoomID)
	assert.Equal(t, "host", hostSeat.Role)
	assert.Equal(t, "hard", hostSeat.Difficulty)
	assert.NotEmpty(t, hostSeat.PlayerToken)

	output, err = guest.run("room", "join", hostSeat.RoomID, "bob")
	require.NoError(t, err, "output: %s", output)

	var guestSeat seatResponse
	require.NoError(t, json.Unmarshal([]byte(output), &guestSeat))
	assert.Equal(t, "guest", guestSeat.Role)
	assert.NotEqual(t, hostSeat.PlayerToken, guestSeat.PlayerToken)

	// Info falls back to the saved seat's room
	output, err = host.run("room", "info")
	require.NoError(t, err, "output: %s", output)

	var info roomInfoResponse
	require.NoError(t, json.Unmarshal([]byte(output), &info))
	assert.Equal(t, "waiting", info.Status)
	assert.Equal(t, "alice", info.Host.Nickname)
	require.NotNil(t, info.Guest)
	assert.Equal(t, "bob", info.Guest.Nickname)

	output, err = host.run("room", "history")
	require.NoError(t, err, "output: %s", output)

	var history historyResponse
	require.NoError(t, json.Unmarshal([]byte(output), &history))
	assert.Equal(t, "123456", history.RoomID)
	assert.Empty(t, history.Results)

	// Room is full now
	third := host.withSeatFile(t)
	output, err = third.run("room", "join", hostSeat.RoomID, "carol")
	require.Error(t, err)
	assert.Contains(t, output, "room_full")
}

func TestCLI_RoomErrors(t *testing.T) {
	_, ts := startTestServer(t)
	cli := newCLIRunner(t, ts.URL)

	output, err := cli.run("room", "join", "999999", "bob")
	require.Error(t, err)
	assert.Contains(t, output, "room_not_found")

	output, err = cli.run("room", "info")
	require.Error(t, err)
	assert.Contains(t, output, "no saved seat")

	output, err = cli.run("events", "999999")
	require.Error(t, err)
	assert.Contains(t, output, "room_not_found")
}

func TestCLI_PuzzleGenerate(t *testing.T) {
	_, ts := startTestServer(t)
	cli := newCLIRunner(t, ts.URL)

	output, err := cli.run("puzzle", "generate", "--difficulty", "easy")
	require.NoError(t, err, "output: %s", output)

	var resp puzzleResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "easy", resp.Difficulty)
	assert.NotEmpty(t, resp.PuzzleID)
	require.Len(t, resp.Puzzle, 9)
	assert.Equal(t, 0, resp.Puzzle[blank.Row][blank.Col])
}

// guestConn plays the other side directly over the websocket
type guestConn struct {
	t    *testing.T
	conn *websocket.Conn
}

func dialGuest(t *testing.T, serverURL string, seat seatResponse) *guestConn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	g := &guestConn{t: t, conn: conn}
	g.send("join_room", map[string]any{"room_id": seat.RoomID, "player_token": seat.PlayerToken})
	g.expect("player_joined")
	return g
}

func (g *guestConn) send(event string, data map[string]any) {
	require.NoError(g.t, g.conn.WriteJSON(map[string]any{"event": event, "data": data}))
}

func (g *guestConn) expect(event string) json.RawMessage {
	for {
		require.NoError(g.t, g.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(g.t, g.conn.ReadJSON(&msg), "waiting for %s", event)
		if msg.Event == event {
			return msg.Data
		}
	}
}

func TestCLI_PlayRace(t *testing.T) {
	_, ts := startTestServer(t)
	host := newCLIRunner(t, ts.URL)
	guestCLI := host.withSeatFile(t)

	output, err := host.run("room", "create", "alice")
	require.NoError(t, err, "output: %s", output)
	var hostSeat seatResponse
	require.NoError(t, json.Unmarshal([]byte(output), &hostSeat))

	output, err = guestCLI.run("room", "join", hostSeat.RoomID, "bob")
	require.NoError(t, err, "output: %s", output)
	var guestSeat seatResponse
	require.NoError(t, json.Unmarshal([]byte(output), &guestSeat))

	guest := dialGuest(t, ts.URL, guestSeat)

	play := host.command("play")
	stdin, err := play.StdinPipe()
	require.NoError(t, err)
	stdout, err := play.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, play.Start())
	t.Cleanup(func() { _ = play.Process.Kill() })

	events := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			var msg struct {
				Event string `json:"event"`
			}
			if json.Unmarshal(scanner.Bytes(), &msg) == nil && msg.Event != "" {
				events <- msg.Event
			}
		}
		close(events)
	}()
	waitFor := func(event string) {
		t.Helper()
		timeout := time.After(5 * time.Second)
		for {
			select {
			case got, ok := <-events:
				require.True(t, ok, "play exited before %s", event)
				if got == event {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %s", event)
			}
		}
	}

	guest.expect("player_joined")
	waitFor("player_joined")

	guest.send("ready", map[string]any{"player_token": guestSeat.PlayerToken})
	_, err = io.WriteString(stdin, "ready\n")
	require.NoError(t, err)
	guest.expect("game_start")
	waitFor("game_start")

	_, err = fmt.Fprintf(stdin, "fill %d %d %d\n", blank.Row, blank.Col, testutil.KnownSolution.At(blank))
	require.NoError(t, err)
	waitFor("cell_result")
	waitFor("game_over")

	var over struct {
		Winner string `json:"winner"`
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(guest.expect("game_over"), &over))
	assert.Equal(t, "host", over.Winner)
	assert.Equal(t, "completed", over.Reason)

	_, err = io.WriteString(stdin, "quit\n")
	require.NoError(t, err)
	require.NoError(t, play.Wait())

	output, err = host.run("room", "history")
	require.NoError(t, err, "output: %s", output)
	var history historyResponse
	require.NoError(t, json.Unmarshal([]byte(output), &history))
	require.Len(t, history.Results, 1)
	assert.Equal(t, "alice", history.Results[0].WinnerNickname)
}
