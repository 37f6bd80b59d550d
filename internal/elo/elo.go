// Package elo computes rating changes for completed matches, the same
// plain-function style the teacher uses for scoring logic in
// internal/game (no library wraps this — Elo has no canonical Go
// package in the corpus, so this stays on math.Pow).
package elo

import "math"

const (
	// Floor is the lowest rating a player can fall to regardless of
	// how badly they lose.
	Floor = 100

	defaultK = 32
)

// Result is the outcome of a single match from player A's perspective.
type Result int

const (
	Loss Result = iota
	Draw
	Win
)

// Change holds the computed rating delta for both players in a match.
type Change struct {
	ChangeA int
	ChangeB int
	NewA    int
	NewB    int
}

// Calculate returns the rating change for a match between ratingA and
// ratingB given resultA (the result from A's point of view). Both
// players use the same K-factor, kFactor; pass 0 to use the default of
// 32.
func Calculate(ratingA, ratingB int, resultA Result, kFactor int) Change {
	if kFactor <= 0 {
		kFactor = defaultK
	}

	expectedA := expectedScore(ratingA, ratingB)
	expectedB := 1 - expectedA

	scoreA, scoreB := scores(resultA)

	deltaA := int(math.Round(float64(kFactor) * (scoreA - expectedA)))
	deltaB := int(math.Round(float64(kFactor) * (scoreB - expectedB)))

	newA := applyFloor(ratingA + deltaA)
	newB := applyFloor(ratingB + deltaB)

	return Change{
		ChangeA: newA - ratingA,
		ChangeB: newB - ratingB,
		NewA:    newA,
		NewB:    newB,
	}
}

// expectedScore is the standard Elo expectation curve for player A
// against player B.
func expectedScore(ratingA, ratingB int) float64 {
	return 1 / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

func scores(resultA Result) (scoreA, scoreB float64) {
	switch resultA {
	case Win:
		return 1, 0
	case Loss:
		return 0, 1
	default:
		return 0.5, 0.5
	}
}

func applyFloor(rating int) int {
	if rating < Floor {
		return Floor
	}
	return rating
}
