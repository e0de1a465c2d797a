package puzzle

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"pgregory.net/rapid"

	"github.com/mcoot/sudoku-race/internal/dependencies/mocks"
	"github.com/mcoot/sudoku-race/internal/dependencies/random"
	"github.com/mcoot/sudoku-race/internal/model"
	"github.com/mcoot/sudoku-race/internal/testutil"
)

// seededRandom adapts math/rand to random.Random so generation is reproducible per seed
type seededRandom struct {
	r *rand.Rand
}

func newSeededRandom(seed int64) *seededRandom {
	return &seededRandom{r: rand.New(rand.NewSource(seed))}
}

func (s *seededRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.r.Intn(n)
}

func (s *seededRandom) String(length int, alphabet string) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[s.Intn(len(alphabet))]
	}
	return string(out)
}

var _ random.Random = (*seededRandom)(nil)

type ServiceSuite struct {
	suite.Suite
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) TestGenerateEveryTierHasUniqueValidSolution() {
	for _, tier := range model.Difficulties() {
		for seed := int64(1); seed <= 3; seed++ {
			svc := New(newSeededRandom(seed), testutil.NopLogger())

			puzzle, solution, normalized := svc.Generate(string(tier))

			s.Equal(tier, normalized)
			s.True(ValidSolution(solution), "tier %s seed %d: invalid solution", tier, seed)
			s.True(IsGivenConsistent(puzzle, solution), "tier %s seed %d: givens disagree with solution", tier, seed)
			s.Equal(1, CountSolutions(puzzle, 2), "tier %s seed %d: puzzle not unique", tier, seed)
		}
	}
}

func (s *ServiceSuite) TestGenerateRespectsGivensFloor() {
	svc := New(newSeededRandom(42), testutil.NopLogger())

	puzzle, _, tier := svc.Generate("easy")

	// Removal may stop early when no further cell keeps uniqueness, never below the target
	s.GreaterOrEqual(puzzle.Filled(), tier.Givens().Min)
}

func (s *ServiceSuite) TestGenerateNormalizesUnknownDifficulty() {
	svc := New(newSeededRandom(7), testutil.NopLogger())

	_, _, tier := svc.Generate("nightmare")
	s.Equal(model.DifficultyMedium, tier)

	_, _, tier = svc.Generate("")
	s.Equal(model.DifficultyMedium, tier)

	_, _, tier = svc.Generate("Very Hard")
	s.Equal(model.DifficultyVeryHard, tier)
}

func (s *ServiceSuite) TestGenerateWithMockRandomIsDeterministic() {
	first, firstSolution, _ := New(mocks.NewMockRandom(), testutil.NopLogger()).Generate("hard")
	second, secondSolution, _ := New(mocks.NewMockRandom(), testutil.NopLogger()).Generate("hard")

	s.Equal(first, second)
	s.Equal(firstSolution, secondSolution)
}

func (s *ServiceSuite) TestCountSolutionsDetectsAmbiguity() {
	var empty model.Grid
	s.Equal(2, CountSolutions(empty, 2))
}

func (s *ServiceSuite) TestValidSolutionRejectsDuplicates() {
	_, solution, _ := New(newSeededRandom(3), testutil.NopLogger()).Generate("easy")
	s.Require().True(ValidSolution(solution))

	broken := solution
	broken[0][0], broken[0][1] = broken[0][1], broken[0][0]
	s.False(ValidSolution(broken))

	broken = solution
	broken[4][4] = 0
	s.False(ValidSolution(broken))
}

func TestPropertyFullBoardIsValid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		svc := New(newSeededRandom(seed), testutil.NopLogger())

		board := svc.fullBoard()
		if !ValidSolution(board) {
			t.Fatalf("seed %d produced an invalid full board", seed)
		}
	})
}

func TestPropertyNormalizeDifficultyIsKnownTier(t *testing.T) {
	known := make(map[model.Difficulty]bool)
	for _, tier := range model.Difficulties() {
		known[tier] = true
	}

	rapid.Check(t, func(t *rapid.T) {
		hint := rapid.String().Draw(t, "hint")
		tier := model.NormalizeDifficulty(hint)
		if !known[tier] {
			t.Fatalf("hint %q normalized to unknown tier %q", hint, tier)
		}
	})
}

func TestPropertyEasyPuzzleIsUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64().Draw(t, "seed")
		puzzle, solution, _ := New(newSeededRandom(seed), testutil.NopLogger()).Generate("easy")

		require.True(t, ValidSolution(solution))
		assert.True(t, IsGivenConsistent(puzzle, solution))
		if CountSolutions(puzzle, 2) != 1 {
			t.Fatalf("seed %d produced a puzzle without a unique solution", seed)
		}
	})
}
