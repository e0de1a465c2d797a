package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/sudoku-race/internal/api/apierr"
	"github.com/mcoot/sudoku-race/internal/api/response"
	"github.com/mcoot/sudoku-race/internal/factory"
	"github.com/mcoot/sudoku-race/internal/model"
)

// testServer wraps a test app with request helpers
type testServer struct {
	app *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp(model.Position{Row: 0, Col: 0}, model.Position{Row: 8, Col: 8})
	t.Cleanup(func() { _ = app.Close() })

	return &testServer{app: app}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reqBody = bytes.NewBuffer(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.app.Handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) createRoom(t *testing.T, name string) response.Seat {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/room/create", map[string]string{"player_name": name, "difficulty": "easy"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var seat response.Seat
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &seat))
	return seat
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"ok":true}`, rr.Body.String())
}

func TestCreateRoom(t *testing.T) {
	ts := newTestServer(t)

	seat := ts.createRoom(t, "Alice")

	assert.Equal(t, "123456", seat.RoomID)
	assert.Equal(t, "host", seat.Role)
	assert.Equal(t, "easy", seat.Difficulty)
	assert.NotEmpty(t, seat.PlayerID)
	assert.NotEmpty(t, seat.PlayerToken)
}

func TestCreateRoomDefaultsDifficulty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/room/create", map[string]string{"player_name": "Alice"})
	require.Equal(t, http.StatusOK, rr.Code)

	var seat response.Seat
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &seat))
	assert.Equal(t, "medium", seat.Difficulty)
}

func TestCreateRoomRejectsBadNickname(t *testing.T) {
	ts := newTestServer(t)

	for _, name := range []string{"", strings.Repeat("x", 21)} {
		rr := ts.request(http.MethodPost, "/api/room/create", map[string]string{"player_name": name})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
	}
}

func TestCreateRoomRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/room/create", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestJoinRoom(t *testing.T) {
	ts := newTestServer(t)
	host := ts.createRoom(t, "Alice")

	rr := ts.request(http.MethodPost, "/api/room/join", map[string]string{"room_id": host.RoomID, "player_name": "Bob"})
	require.Equal(t, http.StatusOK, rr.Code)

	var guest response.Seat
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &guest))
	assert.Equal(t, host.RoomID, guest.RoomID)
	assert.Equal(t, "guest", guest.Role)
	assert.NotEqual(t, host.PlayerToken, guest.PlayerToken)
}

func TestJoinRoomErrors(t *testing.T) {
	ts := newTestServer(t)
	host := ts.createRoom(t, "Alice")
	rr := ts.request(http.MethodPost, "/api/room/join", map[string]string{"room_id": host.RoomID, "player_name": "Bob"})
	require.Equal(t, http.StatusOK, rr.Code)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"full", map[string]string{"room_id": host.RoomID, "player_name": "Carol"}, http.StatusBadRequest, apierr.CodeRoomFull},
		{"not found", map[string]string{"room_id": "999999", "player_name": "Carol"}, http.StatusNotFound, apierr.CodeRoomNotFound},
		{"short room id", map[string]string{"room_id": "123", "player_name": "Carol"}, http.StatusBadRequest, apierr.CodeInvalidRequest},
		{"empty nickname", map[string]string{"room_id": "999999", "player_name": ""}, http.StatusBadRequest, apierr.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/room/join", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
		})
	}
}

func TestRoomInfo(t *testing.T) {
	ts := newTestServer(t)
	host := ts.createRoom(t, "Alice")

	rr := ts.request(http.MethodGet, "/api/room/info?room_id="+host.RoomID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var info response.RoomInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &info))
	assert.Equal(t, "waiting", info.Status)
	assert.Equal(t, "Alice", info.Host.Nickname)
	assert.Nil(t, info.Guest)
	assert.Nil(t, info.Puzzle)
	assert.NotContains(t, rr.Body.String(), "solution")
	assert.Contains(t, rr.Body.String(), `"guest":null`)
}

func TestRoomInfoErrors(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/room/info?room_id=000000", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeRoomNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/room/info", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestRoomHistory(t *testing.T) {
	ts := newTestServer(t)
	host := ts.createRoom(t, "Alice")

	rr := ts.request(http.MethodGet, "/api/room/history?room_id="+host.RoomID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var empty response.History
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &empty))
	assert.Empty(t, empty.Results)

	require.NoError(t, ts.app.Storage.SaveResult(t.Context(), &model.GameResult{
		RoomID:         model.RoomID(host.RoomID),
		Winner:         model.RoleHost,
		WinnerNickname: "Alice",
		Reason:         model.ReasonCompleted,
		Timers:         model.Timers{Host: 90, Guest: 95},
	}))

	rr = ts.request(http.MethodGet, "/api/room/history?room_id="+host.RoomID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var history response.History
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &history))
	require.Len(t, history.Results, 1)
	assert.Equal(t, "Alice", history.Results[0].WinnerNickname)
	assert.Equal(t, 90, history.Results[0].Timers.Host)
}

func TestRoomHistoryUnknownRoom(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/room/history?room_id=424242", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeRoomNotFound, errorCode(t, rr))
}

func TestRoomEventsUnknownRoom(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/room/events?room_id=424242", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeRoomNotFound, errorCode(t, rr))
}

func TestGeneratePuzzle(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/puzzle/generate", map[string]string{"difficulty": "very hard"})
	require.Equal(t, http.StatusOK, rr.Code)

	var preview response.Puzzle
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &preview))
	assert.Equal(t, "very_hard", preview.Difficulty)
	assert.Equal(t, 0, preview.Puzzle[0][0])
	assert.NotZero(t, preview.Puzzle[4][4])
	assert.NotEmpty(t, preview.PuzzleID)
	assert.NotContains(t, rr.Body.String(), "solution")
}

func TestGeneratePuzzleEmptyBody(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/puzzle/generate", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"difficulty":"medium"`)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, errorCode(t, rr))
}

func TestWrongMethod(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/room/create", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, apierr.CodeMethodNotAllowed, errorCode(t, rr))
}

func TestResponsesAreNotCached(t *testing.T) {
	ts := newTestServer(t)

	seat := ts.createRoom(t, "Alice")
	rr := ts.request(http.MethodGet, "/api/room/info?room_id="+seat.RoomID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestOversizedBodyRejected(t *testing.T) {
	ts := newTestServer(t)

	body := `{"player_name":"` + strings.Repeat("a", 8<<10) + `"}`
	rr := ts.request(http.MethodPost, "/api/room/create", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}
