package models

import "time"

type MatchFormat string

const (
	FormatBestOf1 MatchFormat = "best_of_1"
	FormatBestOf3 MatchFormat = "best_of_3"
	FormatBestOf5 MatchFormat = "best_of_5"
	FormatBestOf7 MatchFormat = "best_of_7"
)

// SetsToWin returns the number of sets the winner must take for the
// format, and false for an unknown format.
func (f MatchFormat) SetsToWin() (int, bool) {
	switch f {
	case FormatBestOf1:
		return 1, true
	case FormatBestOf3:
		return 2, true
	case FormatBestOf5:
		return 3, true
	case FormatBestOf7:
		return 4, true
	}
	return 0, false
}

// MaxSets returns the maximum total sets a match of this format can have.
func (f MatchFormat) MaxSets() (int, bool) {
	toWin, ok := f.SetsToWin()
	if !ok {
		return 0, false
	}
	return toWin*2 - 1, true
}

// MatchState is the single lifecycle state of a match. A rejected match
// is deleted, so rejection has no stored state; a consolidated match ends
// in StateAcceptedApplied just like an immediate-mode one (the timestamps
// tell the paths apart).
type MatchState string

const (
	StateSubmitted       MatchState = "submitted"
	StateAcceptedPending MatchState = "accepted_pending"
	StateAcceptedApplied MatchState = "accepted_applied"
)

type Match struct {
	ID              int         `json:"id"`
	LeagueID        int         `json:"league_id"`
	Player1RosterID int         `json:"player1_roster_id"`
	Player2RosterID int         `json:"player2_roster_id"`
	SetsWon1        int         `json:"sets_won1"`
	SetsWon2        int         `json:"sets_won2"`
	Points1         int         `json:"points1"`
	Points2         int         `json:"points2"`
	Format          MatchFormat `json:"format"`
	WinnerRosterID  int         `json:"winner_roster_id"`
	Rating1Before   int         `json:"rating1_before"`
	Rating1After    int         `json:"rating1_after"`
	Rating2Before   int         `json:"rating2_before"`
	Rating2After    int         `json:"rating2_after"`
	State           MatchState  `json:"state"`
	AcceptedAt      *time.Time  `json:"accepted_at,omitempty"`
	RatingAppliedAt *time.Time  `json:"rating_applied_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

type SetScore struct {
	ID        int `json:"id"`
	MatchID   int `json:"match_id"`
	SetNumber int `json:"set_number"`
	Points1   int `json:"points1"`
	Points2   int `json:"points2"`
}
