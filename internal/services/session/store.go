package session

import (
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mcoot/sudoku-race/internal/dependencies/clock"
	"github.com/mcoot/sudoku-race/internal/dependencies/random"
	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/puzzle"
)

// entry pairs a room with the lock that serializes every mutation of it
type entry struct {
	mu   sync.Mutex
	room *model.Room
}

// Store owns the authoritative table of rooms and players.
//
// The table lock guards the maps only. Each room has its own lock, taken through
// WithRoom / WithRoomByToken, so rooms never wait on each other. Methods that take a
// *model.Room expect the caller to hold that room's lock.
type Store struct {
	mu     sync.RWMutex
	rooms  map[model.RoomID]*entry
	tokens map[string]model.RoomID

	puzzles puzzle.Generator
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates an empty Store
func New(puzzles puzzle.Generator, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Store {
	return &Store{
		rooms:   make(map[model.RoomID]*entry),
		tokens:  make(map[string]model.RoomID),
		puzzles: puzzles,
		clock:   clk,
		random:  rnd,
		logger:  logger.With(slog.String("component", "session-store")),
	}
}

// CreateRoom creates a waiting room with a fresh host
func (s *Store) CreateRoom(nickname, difficulty string) (*model.Room, *model.Player, error) {
	if !validNickname(nickname) {
		return nil, nil, model.ErrMalformedRequest
	}

	now := s.clock.Now()
	host := s.newPlayer(nickname, now)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Generate unique room code
	var id model.RoomID
	for {
		id = model.RoomID(s.random.String(model.RoomIDLength, random.Digits))
		if _, exists := s.rooms[id]; !exists {
			break
		}
	}

	room := &model.Room{
		ID:         id,
		Host:       host,
		Difficulty: model.NormalizeDifficulty(difficulty),
		Status:     model.RoomStatusWaiting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	s.rooms[id] = &entry{room: room}
	s.tokens[host.Token] = id

	s.logger.Info("room created",
		slog.String("room_id", string(id)),
		slog.String("difficulty", string(room.Difficulty)),
	)

	return room, host, nil
}

// JoinRoom seats a guest in an existing room. Room status is unchanged.
func (s *Store) JoinRoom(roomID model.RoomID, nickname string) (*model.Room, *model.Player, error) {
	if !validNickname(nickname) {
		return nil, nil, model.ErrMalformedRequest
	}

	e := s.entry(roomID)
	if e == nil {
		return nil, nil, model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.room.Guest != nil {
		return nil, nil, model.ErrRoomFull
	}

	now := s.clock.Now()
	guest := s.newPlayer(nickname, now)
	e.room.Guest = guest
	e.room.UpdatedAt = now

	s.mu.Lock()
	// The room may have been reaped between the lookup and taking its lock
	if _, live := s.rooms[roomID]; !live {
		s.mu.Unlock()
		e.room.Guest = nil
		return nil, nil, model.ErrRoomNotFound
	}
	s.tokens[guest.Token] = roomID
	s.mu.Unlock()

	s.logger.Info("guest joined room", slog.String("room_id", string(roomID)))

	return e.room, guest, nil
}

// WithRoom runs fn with exclusive access to the room
func (s *Store) WithRoom(roomID model.RoomID, fn func(room *model.Room) error) error {
	e := s.entry(roomID)
	if e == nil {
		return model.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !s.isLive(roomID, e) {
		return model.ErrRoomNotFound
	}
	return fn(e.room)
}

// WithRoomByToken runs fn with exclusive access to the room the token belongs to
func (s *Store) WithRoomByToken(token string, fn func(room *model.Room) error) error {
	roomID, ok := s.RoomIDForToken(token)
	if !ok {
		return model.ErrRoomNotFound
	}
	return s.WithRoom(roomID, fn)
}

// RoomIDForToken resolves a bearer token to its room
func (s *Store) RoomIDForToken(token string) (model.RoomID, bool) {
	if token == "" {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	return id, ok
}

// Exists returns true if the room is live
func (s *Store) Exists(roomID model.RoomID) bool {
	return s.entry(roomID) != nil
}

// RoomIDs returns the ids of all live rooms
func (s *Store) RoomIDs() []model.RoomID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]model.RoomID, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns a deep copy of the room taken under its lock
func (s *Store) Snapshot(roomID model.RoomID) (*model.Room, error) {
	var snapshot *model.Room
	err := s.WithRoom(roomID, func(room *model.Room) error {
		snapshot = cloneRoom(room)
		return nil
	})
	return snapshot, err
}

// StartGame deals a new puzzle and starts both timers.
// Both players must be ready.
func (s *Store) StartGame(room *model.Room) error {
	if !s.BothReady(room) {
		return model.ErrPlayersNotReady
	}

	puzzleGrid, solution, difficulty := s.puzzles.Generate(string(room.Difficulty))
	now := s.clock.Now()

	room.Difficulty = difficulty
	room.PuzzleID = model.PuzzleID(uuid.NewString())
	room.Puzzle = &puzzleGrid
	room.Solution = &solution
	room.Status = model.RoomStatusPlaying
	room.StartedAt = &now
	room.PausedAt = nil
	room.UpdatedAt = now

	for _, p := range room.Players() {
		p.ResetGameState()
		p.StartTimer(now)
	}

	s.logger.Info("game started",
		slog.String("room_id", string(room.ID)),
		slog.String("puzzle_id", string(room.PuzzleID)),
		slog.String("difficulty", string(difficulty)),
		slog.Int("blanks", puzzleGrid.Blanks()),
	)
	return nil
}

// PauseGame banks running timers. No-op unless playing.
func (s *Store) PauseGame(room *model.Room) {
	if room.Status != model.RoomStatusPlaying {
		return
	}
	now := s.clock.Now()
	for _, p := range room.Players() {
		p.StopTimer(now)
	}
	room.Status = model.RoomStatusPaused
	room.PausedAt = &now
	room.UpdatedAt = now
}

// ResumeGame restarts both timers. No-op unless paused.
func (s *Store) ResumeGame(room *model.Room) {
	if room.Status != model.RoomStatusPaused {
		return
	}
	now := s.clock.Now()
	for _, p := range room.Players() {
		p.StartTimer(now)
	}
	room.Status = model.RoomStatusPlaying
	room.PausedAt = nil
	room.UpdatedAt = now
}

// FinishGame freezes both timers and marks the room finished
func (s *Store) FinishGame(room *model.Room) {
	now := s.clock.Now()
	for _, p := range room.Players() {
		p.StopTimer(now)
	}
	room.Status = model.RoomStatusFinished
	room.PausedAt = nil
	room.UpdatedAt = now
}

// ResetRoom returns the room to waiting, keeping both players seated
func (s *Store) ResetRoom(room *model.Room) {
	room.Status = model.RoomStatusWaiting
	room.Puzzle = nil
	room.Solution = nil
	room.PuzzleID = ""
	room.StartedAt = nil
	room.PausedAt = nil
	room.UpdatedAt = s.clock.Now()
	for _, p := range room.Players() {
		p.ResetGameState()
	}
}

// BothReady returns true if a guest is seated and both players are ready
func (s *Store) BothReady(room *model.Room) bool {
	return room.Guest != nil && room.Host.Ready && room.Guest.Ready
}

// IsBoardComplete returns true once the player has a value in every blank cell.
// Values are checked at write time, so only the count matters here.
func (s *Store) IsBoardComplete(room *model.Room, player *model.Player) bool {
	if room.Puzzle == nil {
		return false
	}
	return player.Progress.Filled() >= room.Puzzle.Blanks()
}

// Elapsed returns the player's elapsed seconds at the current time
func (s *Store) Elapsed(player *model.Player) int {
	return player.ElapsedSeconds(s.clock.Now())
}

// Touch records activity on the room for idle reaping
func (s *Store) Touch(room *model.Room) {
	room.UpdatedAt = s.clock.Now()
}

// ReapIdle removes rooms with no online player and no activity for ttl.
// Returns the removed room ids.
func (s *Store) ReapIdle(ttl time.Duration) []model.RoomID {
	if ttl <= 0 {
		return nil
	}

	var reaped []model.RoomID
	for _, id := range s.RoomIDs() {
		e := s.entry(id)
		if e == nil {
			continue
		}

		e.mu.Lock()
		idle := !e.room.AnyOnline() && clock.Since(s.clock, e.room.UpdatedAt) > ttl
		if idle {
			s.mu.Lock()
			delete(s.rooms, id)
			for _, p := range e.room.Players() {
				delete(s.tokens, p.Token)
			}
			s.mu.Unlock()
			reaped = append(reaped, id)
		}
		e.mu.Unlock()
	}

	if len(reaped) > 0 {
		s.logger.Info("idle rooms reaped", slog.Int("count", len(reaped)))
	}
	return reaped
}

func (s *Store) entry(roomID model.RoomID) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}

// isLive reports whether e is still the table's entry for roomID
func (s *Store) isLive(roomID model.RoomID, e *entry) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID] == e
}

func (s *Store) newPlayer(nickname string, now time.Time) *model.Player {
	return &model.Player{
		ID:         model.PlayerID(uuid.NewString()),
		Token:      uuid.NewString(),
		Nickname:   nickname,
		Connection: model.ConnectionOnline,
		LastSeenAt: now,
	}
}

func validNickname(nickname string) bool {
	n := utf8.RuneCountInString(nickname)
	return n >= model.MinNicknameLength && n <= model.MaxNicknameLength
}

func cloneRoom(room *model.Room) *model.Room {
	c := *room
	c.Host = clonePlayer(room.Host)
	c.Guest = clonePlayer(room.Guest)
	if room.Puzzle != nil {
		p := *room.Puzzle
		c.Puzzle = &p
	}
	if room.Solution != nil {
		sol := *room.Solution
		c.Solution = &sol
	}
	return &c
}

func clonePlayer(p *model.Player) *model.Player {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
