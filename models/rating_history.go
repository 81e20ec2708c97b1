package models

import "time"

// RatingHistoryEntry is the append-only audit record of one rating change
// for one roster entry in one match. Written exactly once per
// (roster, match) pair by whichever path commits the change.
type RatingHistoryEntry struct {
	ID           int       `json:"id"`
	RosterID     int       `json:"roster_id"`
	LeagueID     int       `json:"league_id"`
	MatchID      int       `json:"match_id"`
	RatingBefore int       `json:"rating_before"`
	RatingAfter  int       `json:"rating_after"`
	Delta        int       `json:"delta"`
	CreatedAt    time.Time `json:"created_at"`
}
