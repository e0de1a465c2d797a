package model

import "strings"

// Difficulty is a puzzle difficulty tier
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
	DifficultyExtreme  Difficulty = "extreme"
)

// GivensRange is the inclusive range of pre-filled cells a tier targets
type GivensRange struct {
	Min int
	Max int
}

// difficultyGivens maps each tier to its givens range
var difficultyGivens = map[Difficulty]GivensRange{
	DifficultyEasy:     {Min: 40, Max: 45},
	DifficultyMedium:   {Min: 35, Max: 40},
	DifficultyHard:     {Min: 30, Max: 35},
	DifficultyVeryHard: {Min: 25, Max: 30},
	DifficultyExtreme:  {Min: 20, Max: 25},
}

// Difficulties returns all tiers from easiest to hardest
func Difficulties() []Difficulty {
	return []Difficulty{
		DifficultyEasy,
		DifficultyMedium,
		DifficultyHard,
		DifficultyVeryHard,
		DifficultyExtreme,
	}
}

// NormalizeDifficulty maps a free-form hint onto a known tier.
// Unknown or empty hints become medium.
func NormalizeDifficulty(hint string) Difficulty {
	key := Difficulty(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(hint)), " ", "_"))
	if _, ok := difficultyGivens[key]; !ok {
		return DifficultyMedium
	}
	return key
}

// Givens returns the givens range for the tier, falling back to medium
func (d Difficulty) Givens() GivensRange {
	if r, ok := difficultyGivens[d]; ok {
		return r
	}
	return difficultyGivens[DifficultyMedium]
}
