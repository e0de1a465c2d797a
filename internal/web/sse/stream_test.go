package sse

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sudoku-race/internal/dependencies/clock"
	"github.com/mcoot/sudoku-race/internal/dependencies/random"
	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/protocol"
	"github.com/mcoot/sudoku-race/internal/services/registry"
	"github.com/mcoot/sudoku-race/internal/services/session"
	"github.com/mcoot/sudoku-race/internal/storage/memory"
	"github.com/mcoot/sudoku-race/internal/testutil"
)

type StreamSuite struct {
	suite.Suite
	store    *session.Store
	registry *registry.Registry
	engine   *protocol.Engine
	server   *httptest.Server
	roomID   model.RoomID
}

func TestStreamSuite(t *testing.T) {
	suite.Run(t, new(StreamSuite))
}

func (s *StreamSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := clock.New()
	s.store = session.New(testutil.NewFixedPuzzle(model.Position{Row: 0, Col: 0}), clk, random.New(), logger)
	s.registry = registry.New(logger)
	s.engine = protocol.New(s.store, s.registry, memory.New(), clk, protocol.DefaultConfig(), logger)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := ServeSSE(w, r, s.engine, model.RoomID(r.URL.Query().Get("room")), logger); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
		}
	}))

	room, _, err := s.store.CreateRoom("alice", "easy")
	s.Require().NoError(err)
	s.roomID = room.ID
}

func (s *StreamSuite) TearDownTest() {
	s.server.Close()
	s.engine.Close()
}

func (s *StreamSuite) open(roomID model.RoomID) *http.Response {
	resp, err := http.Get(s.server.URL + "?room=" + string(roomID))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// nextEvent reads one SSE frame and returns its event name and data
func nextEvent(r *bufio.Reader) (string, string, error) {
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return "", "", err
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data, nil
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data += strings.TrimPrefix(line, "data: ")
		}
	}
}

func (s *StreamSuite) TestUnknownRoomIsRejected() {
	resp := s.open("999999")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(0, s.registry.ConnCount())
}

func (s *StreamSuite) TestStreamsRoomBroadcasts() {
	resp := s.open(s.roomID)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	event, data, err := nextEvent(reader)
	s.Require().NoError(err)
	s.Equal("watching", event)
	s.JSONEq(`{"room_id":"`+string(s.roomID)+`"}`, data)

	s.Require().Eventually(func() bool { return s.registry.RoomSize(s.roomID) == 1 }, time.Second, 5*time.Millisecond)
	msg, err := model.NewOutboundMessage(model.EventRoomReset, model.RoomResetPayload{RoomID: s.roomID})
	s.Require().NoError(err)
	s.Equal(1, s.registry.Broadcast(s.roomID, msg))

	event, data, err = nextEvent(reader)
	s.Require().NoError(err)
	s.Equal(string(model.EventRoomReset), event)
	s.JSONEq(`{"room_id":"`+string(s.roomID)+`"}`, data)
}

func (s *StreamSuite) TestReapedRoomEndsStream() {
	resp := s.open(s.roomID)
	reader := bufio.NewReader(resp.Body)
	_, _, err := nextEvent(reader)
	s.Require().NoError(err)
	s.Require().Eventually(func() bool { return s.registry.RoomSize(s.roomID) == 1 }, time.Second, 5*time.Millisecond)

	s.registry.DropRoom(s.roomID)

	_, _, err = nextEvent(reader)
	s.ErrorIs(err, io.EOF)
	s.Eventually(func() bool { return s.registry.ConnCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestWatcherSendAndClose(t *testing.T) {
	w := NewWatcher("123456")
	msg := model.OutboundMessage{Event: model.EventTimerUpdate, Data: []byte(`{"timers":{}}`)}

	if !w.Send(msg) {
		t.Fatal("send should queue")
	}
	if got := string(<-w.send); got != "event: timer_update\ndata: {\"timers\":{}}\n\n" {
		t.Errorf("unexpected frame %q", got)
	}

	w.Close()
	w.Close()
	if w.Send(msg) {
		t.Error("send after close should fail")
	}
	if _, ok := <-w.send; ok {
		t.Error("channel should be closed")
	}
}

func TestWatcherDropsWhenFull(t *testing.T) {
	w := NewWatcher("123456")
	msg := model.OutboundMessage{Event: model.EventTimerUpdate, Data: []byte(`{}`)}
	for i := 0; i < sendBufferSize; i++ {
		if !w.Send(msg) {
			t.Fatalf("send %d should queue", i)
		}
	}
	if w.Send(msg) {
		t.Error("send on full buffer should fail")
	}
}
