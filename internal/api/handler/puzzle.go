package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mcoot/sudoku-race/internal/api/request"
	"github.com/mcoot/sudoku-race/internal/api/response"
	"github.com/mcoot/sudoku-race/internal/services/puzzle"
)

// PuzzleHandler serves stateless puzzle previews
type PuzzleHandler struct {
	puzzles puzzle.Generator
}

// NewPuzzleHandler creates a new puzzle handler
func NewPuzzleHandler(puzzles puzzle.Generator) *PuzzleHandler {
	return &PuzzleHandler{puzzles: puzzles}
}

// Generate handles POST /api/puzzle/generate
func (h *PuzzleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req request.GeneratePuzzleRequest
	// An empty body asks for the default tier
	if !decodeBody(w, r, &req, true) {
		return
	}

	grid, _, difficulty := h.puzzles.Generate(req.Difficulty)

	response.JSON(w, http.StatusOK, response.Puzzle{
		Puzzle:     grid.Rows(),
		Difficulty: string(difficulty),
		PuzzleID:   uuid.NewString(),
	})
}
