package testutil

import (
	"sync"

	"github.com/mcoot/sudoku-race/internal/model"
)

// KnownSolution is a valid completed grid used by fixed puzzles
var KnownSolution = model.Grid{
	{5, 3, 4, 6, 7, 8, 9, 1, 2},
	{6, 7, 2, 1, 9, 5, 3, 4, 8},
	{1, 9, 8, 3, 4, 2, 5, 6, 7},
	{8, 5, 9, 7, 6, 1, 4, 2, 3},
	{4, 2, 6, 8, 5, 3, 7, 9, 1},
	{7, 1, 3, 9, 2, 4, 8, 5, 6},
	{9, 6, 1, 5, 3, 7, 2, 8, 4},
	{2, 8, 7, 4, 1, 9, 6, 3, 5},
	{3, 4, 5, 2, 8, 6, 1, 7, 9},
}

// FixedPuzzle is a puzzle generator that always deals KnownSolution with the given cells blanked
type FixedPuzzle struct {
	mu     sync.Mutex
	Blanks []model.Position
	Calls  int
}

// NewFixedPuzzle creates a FixedPuzzle blanking the given cells
func NewFixedPuzzle(blanks ...model.Position) *FixedPuzzle {
	return &FixedPuzzle{Blanks: blanks}
}

// Generate implements puzzle.Generator
func (f *FixedPuzzle) Generate(difficulty string) (model.Grid, model.Grid, model.Difficulty) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++

	puzzle := KnownSolution
	for _, pos := range f.Blanks {
		puzzle.Set(pos, 0)
	}
	return puzzle, KnownSolution, model.NormalizeDifficulty(difficulty)
}

// GenerateCalls returns the number of puzzles dealt so far
func (f *FixedPuzzle) GenerateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// WrongValue returns a value in 1-9 that differs from the solution at pos
func WrongValue(pos model.Position) int {
	return KnownSolution.At(pos)%9 + 1
}
