package factory

import (
	"time"

	"github.com/mcoot/sudoku-race/internal/dependencies/mocks"
	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/services/protocol"
	"github.com/mcoot/sudoku-race/internal/storage/memory"
	"github.com/mcoot/sudoku-race/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	Puzzles    *testutil.FixedPuzzle
	Memory     *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Puzzles deal testutil.KnownSolution with the given cells blanked; the first
// room created gets id "123456" unless the test queues other ids.
func NewTestApp(blanks ...model.Position) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockRandom.QueueString("123456")
	puzzles := testutil.NewFixedPuzzle(blanks...)

	cfg := protocol.DefaultConfig()
	// Timer ticks are driven explicitly by tests that need them
	cfg.TimerInterval = time.Hour
	cfg.SweepInterval = time.Hour
	cfg.ReconnectTimeout = 50 * time.Millisecond

	app := newWithDependencies(store, mockClock, mockRandom, puzzles, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		Puzzles:    puzzles,
		Memory:     store,
	}
}
