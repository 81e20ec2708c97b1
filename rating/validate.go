package rating

import (
	"errors"
	"fmt"

	"github.com/Dosada05/league-rating-system/models"
)

var (
	ErrResultDraw       = errors.New("match result cannot be a draw")
	ErrResultWinnerSets = errors.New("winner's sets won do not match the declared format")
	ErrResultTotalSets  = errors.New("total sets exceed the declared format")
	ErrResultNegative   = errors.New("sets won cannot be negative")
	ErrUnknownFormat    = errors.New("unknown match format")
)

// ValidateResult checks that a claimed set score is legal for the declared
// format. It must run before any persistence.
func ValidateResult(setsWon1, setsWon2 int, format models.MatchFormat) error {
	if setsWon1 < 0 || setsWon2 < 0 {
		return ErrResultNegative
	}

	toWin, ok := format.SetsToWin()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	maxSets, _ := format.MaxSets()

	if setsWon1 == setsWon2 {
		return ErrResultDraw
	}

	winnerSets, loserSets := setsWon1, setsWon2
	if setsWon2 > setsWon1 {
		winnerSets, loserSets = setsWon2, setsWon1
	}

	if winnerSets != toWin {
		return fmt.Errorf("%w: winner has %d sets, format %s requires %d", ErrResultWinnerSets, winnerSets, format, toWin)
	}
	if winnerSets+loserSets > maxSets {
		return fmt.Errorf("%w: %d sets played, format %s allows at most %d", ErrResultTotalSets, winnerSets+loserSets, format, maxSets)
	}
	return nil
}
