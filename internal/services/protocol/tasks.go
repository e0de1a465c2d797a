package protocol

import (
	"log/slog"
	"time"

	"github.com/mcoot/sudoku-race/internal/model"
)

// timerTask is one room's timer broadcaster. stopped is guarded by Engine.tasksMu.
type timerTask struct {
	stopped bool
}

// startTimer launches the room's broadcaster unless a live one exists.
// Caller holds the room lock with the room playing.
func (e *Engine) startTimer(roomID model.RoomID) {
	e.tasksMu.Lock()
	defer e.tasksMu.Unlock()

	if e.closed {
		return
	}
	if task, ok := e.timers[roomID]; ok && !task.stopped {
		return
	}

	task := &timerTask{}
	e.timers[roomID] = task
	e.wg.Add(1)
	go e.runTimer(roomID, task)
}

// runTimer broadcasts timer_update every interval until it observes the room not playing.
// The stop decision is made under the room lock, so a resume either sees this task
// still live or sees it retired and starts a fresh one.
func (e *Engine) runTimer(roomID model.RoomID, task *timerTask) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.TimerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
		}

		keep := false
		err := e.store.WithRoom(roomID, func(room *model.Room) error {
			if room.Status != model.RoomStatusPlaying {
				e.retireTimer(roomID, task)
				return nil
			}
			e.broadcast(roomID, model.EventTimerUpdate, model.TimerUpdatePayload{
				Timers: room.Timers(e.clock.Now()),
			})
			keep = true
			return nil
		})
		if err != nil {
			// Room vanished
			e.retireTimer(roomID, task)
			return
		}
		if !keep {
			return
		}
	}
}

func (e *Engine) retireTimer(roomID model.RoomID, task *timerTask) {
	e.tasksMu.Lock()
	defer e.tasksMu.Unlock()
	task.stopped = true
	if e.timers[roomID] == task {
		delete(e.timers, roomID)
	}
}

// timerRunning reports whether the room has a live broadcaster
func (e *Engine) timerRunning(roomID model.RoomID) bool {
	e.tasksMu.Lock()
	defer e.tasksMu.Unlock()
	task, ok := e.timers[roomID]
	return ok && !task.stopped
}

// scheduleWatchdog arms a one-shot check that tells the opponent when the player has
// not come back within ReconnectTimeout. It is never cancelled by a reconnect; the
// check at fire time makes it a no-op instead. Caller holds the room lock.
func (e *Engine) scheduleWatchdog(roomID model.RoomID, token string) {
	e.tasksMu.Lock()
	defer e.tasksMu.Unlock()

	if e.closed {
		return
	}

	var t *time.Timer
	t = time.AfterFunc(e.cfg.ReconnectTimeout, func() {
		e.tasksMu.Lock()
		delete(e.watchdogs, t)
		closed := e.closed
		e.tasksMu.Unlock()
		if closed {
			return
		}
		e.checkReconnect(roomID, token)
	})
	e.watchdogs[t] = struct{}{}
}

func (e *Engine) checkReconnect(roomID model.RoomID, token string) {
	_ = e.store.WithRoom(roomID, func(room *model.Room) error {
		player := room.Player(token)
		if player == nil || player.IsOnline() {
			return nil
		}
		opponent := room.Opponent(token)
		if opponent == nil {
			return nil
		}
		if e.sendToToken(opponent.Token, model.EventReconnectTimeout, model.PlayerRefPayload{PlayerID: player.ID}) {
			e.logger.Info("reconnect timed out",
				slog.String("room_id", string(roomID)),
				slog.String("player_id", string(player.ID)))
		}
		return nil
	})
}

// pendingWatchdogs returns the number of armed watchdogs
func (e *Engine) pendingWatchdogs() int {
	e.tasksMu.Lock()
	defer e.tasksMu.Unlock()
	return len(e.watchdogs)
}
