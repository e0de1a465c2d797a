package model

import "encoding/json"

// EventType identifies a protocol event
type EventType string

// Inbound events (client -> server)
const (
	EventJoinRoom    EventType = "join_room"
	EventReady       EventType = "ready"
	EventFillCell    EventType = "fill_cell"
	EventHeartbeat   EventType = "heartbeat"
	EventReconnect   EventType = "reconnect"
	EventRestartGame EventType = "restart_game"
)

// Outbound events (server -> client)
const (
	EventConnected          EventType = "connected"
	EventError              EventType = "error"
	EventPlayerJoined       EventType = "player_joined"
	EventStateSync          EventType = "state_sync"
	EventPlayerReady        EventType = "player_ready"
	EventGameStart          EventType = "game_start"
	EventCellResult         EventType = "cell_result"
	EventOpponentProgress   EventType = "opponent_progress"
	EventTimerUpdate        EventType = "timer_update"
	EventGameOver           EventType = "game_over"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventPlayerReconnected  EventType = "player_reconnected"
	EventReconnectTimeout   EventType = "reconnect_timeout"
	EventRoomReset          EventType = "room_reset"
)

// Error messages carried by EventError
const (
	ErrorMessageRoomNotFound = "room_not_found"
	ErrorMessageInvalidToken = "invalid_token"
)

// InboundMessage is the envelope for client events
type InboundMessage struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundMessage is the envelope for server events.
// Data is encoded once and shared by every recipient.
type OutboundMessage struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewOutboundMessage encodes a payload into an outbound envelope
func NewOutboundMessage(event EventType, payload any) (OutboundMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return OutboundMessage{}, err
	}
	return OutboundMessage{Event: event, Data: data}, nil
}

// TokenPayload is carried by every token-authenticated inbound event
type TokenPayload struct {
	PlayerToken string `json:"player_token"`
}

// JoinRoomPayload is the data for join_room
type JoinRoomPayload struct {
	RoomID      RoomID `json:"room_id"`
	PlayerToken string `json:"player_token"`
}

// FillCellPayload is the data for fill_cell.
// Coordinates accept JSON numbers or integer strings; a missing field stays nil.
type FillCellPayload struct {
	PlayerToken string   `json:"player_token"`
	Row         *FlexInt `json:"row"`
	Col         *FlexInt `json:"col"`
	Value       *FlexInt `json:"value"`
}

// ConnectedPayload is the data for connected
type ConnectedPayload struct {
	OK bool `json:"ok"`
}

// ErrorPayload is the data for error
type ErrorPayload struct {
	Message string `json:"message"`
}

// PlayerJoinedPayload is the data for player_joined
type PlayerJoinedPayload struct {
	PlayerID PlayerID `json:"player_id"`
	Nickname string   `json:"nickname"`
}

// PlayerRefPayload is the data for events that only name a player
// (player_ready, player_disconnected, player_reconnected, reconnect_timeout)
type PlayerRefPayload struct {
	PlayerID PlayerID `json:"player_id"`
}

// GameStartPayload is the data for game_start
type GameStartPayload struct {
	RoomID     RoomID     `json:"room_id"`
	Difficulty Difficulty `json:"difficulty"`
	PuzzleID   PuzzleID   `json:"puzzle_id"`
	Puzzle     [][]int    `json:"puzzle"`
}

// CellResultPayload is the data for cell_result, sent to the acting player only
type CellResultPayload struct {
	Row     int  `json:"row"`
	Col     int  `json:"col"`
	Value   int  `json:"value"`
	Correct bool `json:"correct"`
	Errors  int  `json:"errors"`
	Filled  int  `json:"filled"`
}

// OpponentProgressPayload is the data for opponent_progress.
// Only the count is shared, never cell values.
type OpponentProgressPayload struct {
	Filled int `json:"filled"`
}

// TimerUpdatePayload is the data for timer_update
type TimerUpdatePayload struct {
	Timers Timers `json:"timers"`
}

// GameOverPayload is the data for game_over
type GameOverPayload struct {
	Winner Role           `json:"winner"`
	Reason GameOverReason `json:"reason"`
	Timers Timers         `json:"timers"`
}

// RoomResetPayload is the data for room_reset
type RoomResetPayload struct {
	RoomID RoomID `json:"room_id"`
}

// OpponentSummary is the opponent section of a state snapshot
type OpponentSummary struct {
	Nickname string `json:"nickname"`
	Online   bool   `json:"online"`
	Progress int    `json:"progress"`
	Errors   int    `json:"errors"`
}

// StateSyncPayload is the full snapshot sent to a (re)joining player
type StateSyncPayload struct {
	RoomID     RoomID          `json:"room_id"`
	Status     RoomStatus      `json:"status"`
	Difficulty Difficulty      `json:"difficulty"`
	PuzzleID   PuzzleID        `json:"puzzle_id"`
	Puzzle     [][]int         `json:"puzzle"`
	Progress   [][]int         `json:"progress"`
	Errors     int             `json:"errors"`
	Timers     Timers          `json:"timers"`
	Opponent   OpponentSummary `json:"opponent"`
}
