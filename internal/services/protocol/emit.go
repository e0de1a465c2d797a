package protocol

import (
	"log/slog"

	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/registry"
)

func (e *Engine) encode(event model.EventType, payload any) (model.OutboundMessage, bool) {
	msg, err := model.NewOutboundMessage(event, payload)
	if err != nil {
		e.logger.Error("failed to encode event",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return model.OutboundMessage{}, false
	}
	return msg, true
}

func (e *Engine) send(connID string, event model.EventType, payload any) bool {
	msg, ok := e.encode(event, payload)
	if !ok {
		return false
	}
	return e.registry.Send(connID, msg)
}

func (e *Engine) sendToToken(token string, event model.EventType, payload any) bool {
	msg, ok := e.encode(event, payload)
	if !ok {
		return false
	}
	return e.registry.SendToToken(token, msg)
}

func (e *Engine) broadcast(roomID model.RoomID, event model.EventType, payload any) {
	msg, ok := e.encode(event, payload)
	if !ok {
		return
	}
	e.registry.Broadcast(roomID, msg)
}

func (e *Engine) sendCellResult(conn registry.Conn, player *model.Player, pos model.Position, value int, correct bool) {
	e.send(conn.ID(), model.EventCellResult, model.CellResultPayload{
		Row:     pos.Row,
		Col:     pos.Col,
		Value:   value,
		Correct: correct,
		Errors:  player.Errors,
		Filled:  player.Progress.Filled(),
	})
}

// notifyOpponent shares the player's filled count, never values
func (e *Engine) notifyOpponent(opponent, player *model.Player) {
	if opponent == nil {
		return
	}
	e.sendToToken(opponent.Token, model.EventOpponentProgress, model.OpponentProgressPayload{
		Filled: player.Progress.Filled(),
	})
}

// stateSync builds the full snapshot for one player. The solution is never included.
func (e *Engine) stateSync(room *model.Room, player *model.Player) model.StateSyncPayload {
	payload := model.StateSyncPayload{
		RoomID:     room.ID,
		Status:     room.Status,
		Difficulty: room.Difficulty,
		PuzzleID:   room.PuzzleID,
		Progress:   player.Progress.Rows(),
		Errors:     player.Errors,
		Timers:     room.Timers(e.clock.Now()),
	}
	if room.Puzzle != nil {
		payload.Puzzle = room.Puzzle.Rows()
	}
	if opponent := room.Opponent(player.Token); opponent != nil {
		payload.Opponent = model.OpponentSummary{
			Nickname: opponent.Nickname,
			Online:   opponent.IsOnline(),
			Progress: opponent.Progress.Filled(),
			Errors:   opponent.Errors,
		}
	}
	return payload
}
