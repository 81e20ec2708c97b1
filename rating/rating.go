// Package rating implements the ELO-style rating computation and the
// result legality checks for league matches. Everything here is pure:
// no I/O, deterministic for a given input, shared between the preview
// path and the committed application paths.
package rating

import "math"

// KFactor is the fixed sensitivity of the rating system.
const KFactor = 46

// Outcome is the full result of one delta computation. NewRating1/2 are
// zero-sum around the inputs: only one delta is computed and applied with
// opposite sign to each side.
type Outcome struct {
	NewRating1       int     `json:"new_rating1"`
	NewRating2       int     `json:"new_rating2"`
	Delta            int     `json:"delta"`
	ExpectedScore1   float64 `json:"expected_score1"`
	PointsFactor     float64 `json:"points_factor"`
	FormatMultiplier float64 `json:"format_multiplier"`
}

// ComputeDelta computes the rating change for player 1 from both current
// ratings, the total points, the winner and the sets won. Player 2 always
// receives the exact negative of player 1's delta.
func ComputeDelta(rating1, rating2, points1, points2 int, p1Won bool, setsWon1, setsWon2 int) Outcome {
	expected1 := expectedScore(rating1, rating2)

	setsToWin := setsWon1
	if setsWon2 > setsToWin {
		setsToWin = setsWon2
	}
	multiplier := formatMultiplier(setsToWin)

	pointsFactor := pointsFactor(points1, points2)

	actual1 := 0.0
	if p1Won {
		actual1 = 1.0
	}

	delta := int(math.Round(KFactor * multiplier * pointsFactor * (actual1 - expected1)))

	return Outcome{
		NewRating1:       rating1 + delta,
		NewRating2:       rating2 - delta,
		Delta:            delta,
		ExpectedScore1:   expected1,
		PointsFactor:     pointsFactor,
		FormatMultiplier: multiplier,
	}
}

func expectedScore(rating1, rating2 int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(rating2-rating1)/400.0))
}

// formatMultiplier scales the delta by match length, keyed by the sets
// the winner took. Values outside 1..4 fall back to the best-of-1
// multiplier; this mirrors the original system's observed behavior and
// is unreachable for results that passed ValidateResult.
func formatMultiplier(setsToWin int) float64 {
	switch setsToWin {
	case 1:
		return 0.512
	case 2:
		return 0.64
	case 3:
		return 0.8
	case 4:
		return 1.0
	default:
		return 0.512
	}
}

// pointsFactor rewards dominant scorelines: 1 + (share − 0.5) × 0.7,
// bounded to roughly [0.65, 1.35]. A pointless match counts as an even
// split.
func pointsFactor(points1, points2 int) float64 {
	total := points1 + points2
	share := 0.5
	if total > 0 {
		share = float64(points1) / float64(total)
	}
	return 1.0 + (share-0.5)*0.7
}
