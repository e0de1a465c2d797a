package protocol

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/registry"
)

// JoinRoom binds the connection to a seated player and announces them to the room.
// Unknown rooms and tokens get an error event.
func (e *Engine) JoinRoom(ctx context.Context, conn registry.Conn, p model.JoinRoomPayload) {
	if p.RoomID == "" || p.PlayerToken == "" {
		return
	}

	err := e.store.WithRoom(p.RoomID, func(room *model.Room) error {
		player := room.Player(p.PlayerToken)
		if player == nil {
			return model.ErrInvalidToken
		}
		if !e.attach(conn, room, player) {
			return nil
		}

		e.broadcast(room.ID, model.EventPlayerJoined, model.PlayerJoinedPayload{
			PlayerID: player.ID,
			Nickname: player.Nickname,
		})
		if room.Status.HasPuzzle() {
			e.send(conn.ID(), model.EventStateSync, e.stateSync(room, player))
		}
		return nil
	})
	if err != nil {
		e.replyError(conn, err)
	}
}

// Ready marks the player ready and starts the game once both players are
func (e *Engine) Ready(ctx context.Context, conn registry.Conn, p model.TokenPayload) {
	err := e.store.WithRoomByToken(p.PlayerToken, func(room *model.Room) error {
		player := room.Player(p.PlayerToken)
		if player == nil {
			return model.ErrInvalidToken
		}
		// Readiness only means something before a game; finished rooms need a restart first
		if room.Status != model.RoomStatusWaiting {
			return nil
		}

		player.Ready = true
		e.store.Touch(room)
		e.broadcast(room.ID, model.EventPlayerReady, model.PlayerRefPayload{PlayerID: player.ID})

		if !e.store.BothReady(room) {
			return nil
		}
		if err := e.store.StartGame(room); err != nil {
			return err
		}
		e.broadcast(room.ID, model.EventGameStart, model.GameStartPayload{
			RoomID:     room.ID,
			Difficulty: room.Difficulty,
			PuzzleID:   room.PuzzleID,
			Puzzle:     room.Puzzle.Rows(),
		})
		e.startTimer(room.ID)
		return nil
	})
	if err != nil {
		e.dropped(conn, model.EventReady, err)
	}
}

// FillCell validates and applies a cell write, adjudicating errors and completion.
// Malformed writes and writes to given cells are dropped.
func (e *Engine) FillCell(ctx context.Context, conn registry.Conn, p model.FillCellPayload) {
	if p.PlayerToken == "" || p.Row == nil || p.Col == nil || p.Value == nil {
		e.dropped(conn, model.EventFillCell, model.ErrMalformedRequest)
		return
	}
	pos := model.Position{Row: int(*p.Row), Col: int(*p.Col)}
	value := int(*p.Value)
	if !pos.IsValid() || value < 0 || value > 9 {
		e.dropped(conn, model.EventFillCell, model.ErrMalformedRequest)
		return
	}

	var result *model.GameResult
	err := e.store.WithRoomByToken(p.PlayerToken, func(room *model.Room) error {
		player := room.Player(p.PlayerToken)
		if player == nil {
			return model.ErrInvalidToken
		}
		if room.Status != model.RoomStatusPlaying || room.Puzzle == nil || room.Solution == nil {
			return nil
		}
		if room.Puzzle.At(pos) != 0 {
			return nil
		}
		opponent := room.Opponent(p.PlayerToken)

		switch {
		case value == 0:
			if player.Progress.At(pos) == 0 {
				return nil
			}
			player.Progress.Set(pos, 0)
			e.sendCellResult(conn, player, pos, 0, true)
			e.notifyOpponent(opponent, player)

		case room.Solution.At(pos) == value:
			player.Progress.Set(pos, value)
			e.sendCellResult(conn, player, pos, value, true)
			e.notifyOpponent(opponent, player)
			if e.store.IsBoardComplete(room, player) {
				result = e.finish(room, player, model.ReasonCompleted)
			}

		default:
			player.Errors++
			e.sendCellResult(conn, player, pos, value, false)
			if player.Errors >= model.MaxErrors && opponent != nil {
				result = e.finish(room, opponent, model.ReasonErrors)
			}
		}
		e.store.Touch(room)
		return nil
	})
	if err != nil {
		e.dropped(conn, model.EventFillCell, err)
		return
	}

	if result != nil {
		e.saveResult(ctx, result)
	}
}

// Heartbeat refreshes the player's liveness stamp
func (e *Engine) Heartbeat(ctx context.Context, conn registry.Conn, p model.TokenPayload) {
	err := e.store.WithRoomByToken(p.PlayerToken, func(room *model.Room) error {
		player := room.Player(p.PlayerToken)
		if player == nil {
			return model.ErrInvalidToken
		}
		player.LastSeenAt = e.clock.Now()
		return nil
	})
	if err != nil {
		e.dropped(conn, model.EventHeartbeat, err)
	}
}

// Reconnect rebinds a returning player and resumes a paused game once both players are online
func (e *Engine) Reconnect(ctx context.Context, conn registry.Conn, p model.TokenPayload) {
	err := e.store.WithRoomByToken(p.PlayerToken, func(room *model.Room) error {
		player := room.Player(p.PlayerToken)
		if player == nil {
			return model.ErrInvalidToken
		}
		if !e.attach(conn, room, player) {
			return nil
		}

		e.broadcast(room.ID, model.EventPlayerReconnected, model.PlayerRefPayload{PlayerID: player.ID})

		if room.Status == model.RoomStatusPaused && room.BothOnline() {
			e.store.ResumeGame(room)
			e.startTimer(room.ID)
			e.logger.Info("game resumed", slog.String("room_id", string(room.ID)))
		}
		e.send(conn.ID(), model.EventStateSync, e.stateSync(room, player))
		return nil
	})
	if err != nil {
		e.replyError(conn, err)
	}
}

// RestartGame puts the room back to waiting with both players still seated
func (e *Engine) RestartGame(ctx context.Context, conn registry.Conn, p model.TokenPayload) {
	err := e.store.WithRoomByToken(p.PlayerToken, func(room *model.Room) error {
		if room.Player(p.PlayerToken) == nil {
			return model.ErrInvalidToken
		}
		e.store.ResetRoom(room)
		e.broadcast(room.ID, model.EventRoomReset, model.RoomResetPayload{RoomID: room.ID})
		return nil
	})
	if err != nil {
		e.dropped(conn, model.EventRestartGame, err)
	}
}

// attach binds the connection to the player and marks them online.
// Returns false if the connection is already gone. Caller holds the room lock.
func (e *Engine) attach(conn registry.Conn, room *model.Room, player *model.Player) bool {
	if !e.registry.Bind(conn.ID(), player.Token, room.ID) {
		e.logger.Debug("bind on closed connection dropped", slog.String("conn_id", conn.ID()))
		return false
	}
	player.MarkOnline(e.clock.Now())
	e.store.Touch(room)
	return true
}

// finish ends the game in favor of winner and announces it. Caller holds the room lock.
func (e *Engine) finish(room *model.Room, winner *model.Player, reason model.GameOverReason) *model.GameResult {
	e.store.FinishGame(room)

	now := e.clock.Now()
	timers := room.Timers(now)
	role := room.RoleOf(winner)

	e.broadcast(room.ID, model.EventGameOver, model.GameOverPayload{
		Winner: role,
		Reason: reason,
		Timers: timers,
	})

	e.logger.Info("game over",
		slog.String("room_id", string(room.ID)),
		slog.String("winner", string(role)),
		slog.String("reason", string(reason)))

	return &model.GameResult{
		RoomID:         room.ID,
		PuzzleID:       room.PuzzleID,
		Difficulty:     room.Difficulty,
		Winner:         role,
		WinnerID:       winner.ID,
		WinnerNickname: winner.Nickname,
		Reason:         reason,
		Timers:         timers,
		FinishedAt:     now,
	}
}

func (e *Engine) saveResult(ctx context.Context, result *model.GameResult) {
	if err := e.storage.SaveResult(ctx, result); err != nil {
		e.logger.Error("failed to save game result",
			slog.String("room_id", string(result.RoomID)),
			slog.String("error", err.Error()))
	}
}

func (e *Engine) replyError(conn registry.Conn, err error) {
	switch {
	case errors.Is(err, model.ErrRoomNotFound):
		e.send(conn.ID(), model.EventError, model.ErrorPayload{Message: model.ErrorMessageRoomNotFound})
	case errors.Is(err, model.ErrInvalidToken):
		e.send(conn.ID(), model.EventError, model.ErrorPayload{Message: model.ErrorMessageInvalidToken})
	default:
		e.logger.Error("unexpected join failure",
			slog.String("conn_id", conn.ID()),
			slog.String("error", err.Error()))
	}
}

func (e *Engine) dropped(conn registry.Conn, event model.EventType, err error) {
	e.logger.Debug("event dropped",
		slog.String("conn_id", conn.ID()),
		slog.String("event", string(event)),
		slog.String("reason", err.Error()))
}
