package puzzle

import (
	"math"
	"time"
)

// difficultyFactor maps a difficulty tag to its score multiplier.
// Unrecognized tags score as normal.
func difficultyFactor(difficulty string) float64 {
	switch difficulty {
	case "easy":
		return 0.8
	case "hard":
		return 1.2
	case "expert":
		return 1.5
	default:
		return 1.0
	}
}

// finalScore computes a completed puzzle's score: base 100, minus 10 per
// attempt beyond the first, minus 15 per hint, plus up to 20 bonus points
// proportional to the fraction of time remaining on timed puzzles, scaled
// by the difficulty factor, clamped at 0, floored to an integer.
func finalScore(attempts, hints int, remaining, limit time.Duration, difficulty string) int {
	score := 100.0
	if attempts > 1 {
		score -= 10 * float64(attempts-1)
	}
	score -= 15 * float64(hints)
	if limit > 0 && remaining > 0 {
		score += 20 * remaining.Seconds() / limit.Seconds()
	}
	score *= difficultyFactor(difficulty)
	if score < 0 {
		score = 0
	}
	return int(math.Floor(score))
}
