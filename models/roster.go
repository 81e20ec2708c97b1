package models

import "time"

// RosterEntry is a player's league-scoped membership record. UserID is
// nullable: a league admin may create placeholder entries that are bound
// to a real user later.
type RosterEntry struct {
	ID          int       `json:"id"`
	LeagueID    int       `json:"league_id"`
	UserID      *int      `json:"user_id,omitempty"`
	DisplayName string    `json:"display_name"`
	Rating      int       `json:"rating"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

const DefaultRating = 1000
