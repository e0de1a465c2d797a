package memory

import (
	"context"
	"sync"

	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	results map[model.RoomID][]*model.GameResult
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		results: make(map[model.RoomID][]*model.GameResult),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *result
	s.results[result.RoomID] = append(s.results[result.RoomID], &stored)
	return nil
}

func (s *Storage) GetResultsForRoom(ctx context.Context, roomID model.RoomID) ([]*model.GameResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.results[roomID]
	if !ok {
		return nil, model.ErrResultsNotFound
	}
	results := make([]*model.GameResult, 0, len(stored))
	for _, r := range stored {
		c := *r
		results = append(results, &c)
	}
	return results, nil
}

func (s *Storage) DeleteResultsForRoom(ctx context.Context, roomID model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, roomID)
	return nil
}
