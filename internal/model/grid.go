package model

// GridSize is the side length of a Sudoku grid
const GridSize = 9

// BoxSize is the side length of a 3x3 box
const BoxSize = 3

// Grid is a 9x9 Sudoku grid. 0 marks an empty cell.
type Grid [GridSize][GridSize]int

// Position identifies a cell on the grid
type Position struct {
	Row int
	Col int
}

// IsValid returns true if the position is within grid bounds
func (p Position) IsValid() bool {
	return p.Row >= 0 && p.Row < GridSize && p.Col >= 0 && p.Col < GridSize
}

// At returns the value at the given position
func (g *Grid) At(pos Position) int {
	return g[pos.Row][pos.Col]
}

// Set stores a value at the given position
func (g *Grid) Set(pos Position, value int) {
	g[pos.Row][pos.Col] = value
}

// Filled returns the number of non-zero cells
func (g *Grid) Filled() int {
	count := 0
	for r := 0; r < GridSize; r++ {
		for c := 0; c < GridSize; c++ {
			if g[r][c] != 0 {
				count++
			}
		}
	}
	return count
}

// Blanks returns the number of empty cells
func (g *Grid) Blanks() int {
	return GridSize*GridSize - g.Filled()
}

// Rows converts the grid to a slice form suitable for JSON payloads
func (g *Grid) Rows() [][]int {
	rows := make([][]int, GridSize)
	for r := 0; r < GridSize; r++ {
		rows[r] = make([]int, GridSize)
		copy(rows[r], g[r][:])
	}
	return rows
}
