package registry

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	registry *Registry
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.registry = New(testutil.NopLogger())
}

func (s *RegistrySuite) msg(event model.EventType) model.OutboundMessage {
	m, err := model.NewOutboundMessage(event, model.RoomResetPayload{RoomID: "123456"})
	s.Require().NoError(err)
	return m
}

func (s *RegistrySuite) bound(id, token string, roomID model.RoomID) *testutil.RecordingConn {
	conn := testutil.NewRecordingConn(id)
	s.registry.Add(conn)
	s.Require().True(s.registry.Bind(id, token, roomID))
	return conn
}

func (s *RegistrySuite) TestSendToUnboundConnection() {
	conn := testutil.NewRecordingConn("c1")
	s.registry.Add(conn)

	s.True(s.registry.Send("c1", s.msg(model.EventConnected)))
	s.False(s.registry.Send("missing", s.msg(model.EventConnected)))
	s.Equal([]model.EventType{model.EventConnected}, conn.Events())
}

func (s *RegistrySuite) TestBindUnknownConnectionFails() {
	s.False(s.registry.Bind("missing", "token", "123456"))
}

func (s *RegistrySuite) TestBroadcastReachesRoomOnly() {
	host := s.bound("c1", "host-token", "123456")
	guest := s.bound("c2", "guest-token", "123456")
	other := s.bound("c3", "other-token", "654321")

	sent := s.registry.Broadcast("123456", s.msg(model.EventRoomReset))

	s.Equal(2, sent)
	s.Equal(1, host.Count(model.EventRoomReset))
	s.Equal(1, guest.Count(model.EventRoomReset))
	s.Empty(other.Messages())
}

func (s *RegistrySuite) TestSendToToken() {
	host := s.bound("c1", "host-token", "123456")

	s.True(s.registry.SendToToken("host-token", s.msg(model.EventCellResult)))
	s.False(s.registry.SendToToken("nobody", s.msg(model.EventCellResult)))
	s.Equal(1, host.Count(model.EventCellResult))
}

func (s *RegistrySuite) TestRebindMovesTokenToNewConnection() {
	old := s.bound("c1", "host-token", "123456")
	fresh := s.bound("c2", "host-token", "123456")

	s.False(s.registry.IsCurrent("c1"))
	s.True(s.registry.IsCurrent("c2"))

	s.registry.SendToToken("host-token", s.msg(model.EventStateSync))
	s.registry.Broadcast("123456", s.msg(model.EventRoomReset))

	s.Empty(old.Messages())
	s.Equal([]model.EventType{model.EventStateSync, model.EventRoomReset}, fresh.Events())
	s.Equal(1, s.registry.RoomSize("123456"))
}

func (s *RegistrySuite) TestRemoveStaleConnectionIsNotCurrent() {
	s.bound("c1", "host-token", "123456")
	s.bound("c2", "host-token", "123456")

	token, roomID, current := s.registry.Remove("c1")

	s.Equal("host-token", token)
	s.Empty(roomID)
	s.False(current)
	s.True(s.registry.HasConnection("host-token"))
}

func (s *RegistrySuite) TestRemoveCurrentConnection() {
	s.bound("c1", "host-token", "123456")

	token, roomID, current := s.registry.Remove("c1")

	s.Equal("host-token", token)
	s.Equal(model.RoomID("123456"), roomID)
	s.True(current)
	s.False(s.registry.HasConnection("host-token"))
	s.Equal(0, s.registry.RoomSize("123456"))
	s.Equal(0, s.registry.ConnCount())
}

func (s *RegistrySuite) TestRemoveUnknownConnection() {
	token, roomID, current := s.registry.Remove("missing")
	s.Empty(token)
	s.Empty(roomID)
	s.False(current)
}

func (s *RegistrySuite) TestWatcherReceivesBroadcastsOnly() {
	s.bound("c1", "host-token", "123456")
	watcher := testutil.NewRecordingConn("w1")
	s.registry.Watch(watcher, "123456")

	s.registry.SendToToken("host-token", s.msg(model.EventCellResult))
	s.registry.Broadcast("123456", s.msg(model.EventTimerUpdate))

	s.Equal([]model.EventType{model.EventTimerUpdate}, watcher.Events())

	_, _, current := s.registry.Remove("w1")
	s.False(current)
	s.Equal(1, s.registry.RoomSize("123456"))
}

func (s *RegistrySuite) TestBroadcastCountsDroppedMessages() {
	s.bound("c1", "host-token", "123456")
	full := s.bound("c2", "guest-token", "123456")
	full.SetFull(true)

	sent := s.registry.Broadcast("123456", s.msg(model.EventTimerUpdate))

	s.Equal(1, sent)
	s.Empty(full.Messages())
}

func (s *RegistrySuite) TestDropRoomClosesWatchers() {
	player := s.bound("c1", "host-token", "123456")
	watcher := testutil.NewRecordingConn("w1")
	s.registry.Watch(watcher, "123456")

	s.registry.DropRoom("123456")

	s.True(watcher.IsClosed())
	s.False(player.IsClosed())
	s.Equal(0, s.registry.RoomSize("123456"))
	s.Equal(0, s.registry.Broadcast("123456", s.msg(model.EventTimerUpdate)))
	s.Equal(1, s.registry.ConnCount())
}
