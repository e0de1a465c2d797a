package puzzle

import (
	"log/slog"

	"github.com/mcoot/sudoku-race/internal/dependencies/random"
	"github.com/mcoot/sudoku-race/internal/model"
)

// Generator produces a puzzle/solution pair for a difficulty hint
type Generator interface {
	Generate(difficulty string) (puzzle model.Grid, solution model.Grid, normalized model.Difficulty)
}

// Service generates Sudoku puzzles with a unique solution
type Service struct {
	random random.Random
	logger *slog.Logger
}

// New creates a new puzzle Service
func New(rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		random: rnd,
		logger: logger.With(slog.String("component", "puzzle")),
	}
}

// Ensure Service implements Generator
var _ Generator = (*Service)(nil)

// Generate builds a full solution, then removes cells while the puzzle keeps exactly
// one solution, stopping at a givens count drawn from the tier's range.
func (s *Service) Generate(difficulty string) (model.Grid, model.Grid, model.Difficulty) {
	tier := model.NormalizeDifficulty(difficulty)
	solution := s.fullBoard()
	puzzle, givens := s.removeCells(solution, tier)

	s.logger.Debug("puzzle generated",
		slog.String("difficulty", string(tier)),
		slog.Int("givens", givens),
	)

	return puzzle, solution, tier
}

// fullBoard fills an empty grid with a random valid solution
func (s *Service) fullBoard() model.Grid {
	var board model.Grid
	s.fill(&board)
	return board
}

func (s *Service) fill(board *model.Grid) bool {
	pos, ok := findEmpty(board)
	if !ok {
		return true
	}

	candidates := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	random.Shuffle(s.random, len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, n := range candidates {
		if canPlace(board, pos, n) {
			board.Set(pos, n)
			if s.fill(board) {
				return true
			}
			board.Set(pos, 0)
		}
	}
	return false
}

// removeCells blanks cells in random order, keeping a blank only if the puzzle stays unique
func (s *Service) removeCells(solution model.Grid, tier model.Difficulty) (model.Grid, int) {
	puzzle := solution
	givensRange := tier.Givens()
	target := givensRange.Min + s.random.Intn(givensRange.Max-givensRange.Min+1)
	givens := model.GridSize * model.GridSize

	cells := make([]model.Position, 0, givens)
	for r := 0; r < model.GridSize; r++ {
		for c := 0; c < model.GridSize; c++ {
			cells = append(cells, model.Position{Row: r, Col: c})
		}
	}
	random.Shuffle(s.random, len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})

	for _, pos := range cells {
		if givens <= target {
			break
		}
		saved := puzzle.At(pos)
		puzzle.Set(pos, 0)
		if CountSolutions(puzzle, 2) != 1 {
			puzzle.Set(pos, saved)
			continue
		}
		givens--
	}

	return puzzle, givens
}

// CountSolutions counts solutions of the grid, stopping once limit is reached
func CountSolutions(grid model.Grid, limit int) int {
	board := grid
	return countSolutions(&board, limit)
}

func countSolutions(board *model.Grid, limit int) int {
	pos, ok := findEmpty(board)
	if !ok {
		return 1
	}
	count := 0
	for n := 1; n <= 9; n++ {
		if !canPlace(board, pos, n) {
			continue
		}
		board.Set(pos, n)
		count += countSolutions(board, limit)
		board.Set(pos, 0)
		if count >= limit {
			return count
		}
	}
	return count
}

// ValidSolution returns true if the grid is full and every row, column and box holds 1-9 once
func ValidSolution(grid model.Grid) bool {
	for i := 0; i < model.GridSize; i++ {
		var row, col, box [10]bool
		for j := 0; j < model.GridSize; j++ {
			rv := grid[i][j]
			cv := grid[j][i]
			bv := grid[(i/model.BoxSize)*model.BoxSize+j/model.BoxSize][(i%model.BoxSize)*model.BoxSize+j%model.BoxSize]
			if rv < 1 || rv > 9 || cv < 1 || cv > 9 || bv < 1 || bv > 9 {
				return false
			}
			if row[rv] || col[cv] || box[bv] {
				return false
			}
			row[rv], col[cv], box[bv] = true, true, true
		}
	}
	return true
}

// IsGivenConsistent returns true if every given in puzzle matches solution
func IsGivenConsistent(puzzle, solution model.Grid) bool {
	for r := 0; r < model.GridSize; r++ {
		for c := 0; c < model.GridSize; c++ {
			if puzzle[r][c] != 0 && puzzle[r][c] != solution[r][c] {
				return false
			}
		}
	}
	return true
}

func findEmpty(board *model.Grid) (model.Position, bool) {
	for r := 0; r < model.GridSize; r++ {
		for c := 0; c < model.GridSize; c++ {
			if board[r][c] == 0 {
				return model.Position{Row: r, Col: c}, true
			}
		}
	}
	return model.Position{}, false
}

func canPlace(board *model.Grid, pos model.Position, n int) bool {
	for i := 0; i < model.GridSize; i++ {
		if board[pos.Row][i] == n || board[i][pos.Col] == n {
			return false
		}
	}
	boxRow := (pos.Row / model.BoxSize) * model.BoxSize
	boxCol := (pos.Col / model.BoxSize) * model.BoxSize
	for r := boxRow; r < boxRow+model.BoxSize; r++ {
		for c := boxCol; c < boxCol+model.BoxSize; c++ {
			if board[r][c] == n {
				return false
			}
		}
	}
	return true
}
