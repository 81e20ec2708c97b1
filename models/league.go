package models

import "time"

// RatingUpdateMode governs who commits rating changes for a league's
// matches: the acceptance path (immediate) or the consolidation run
// (weekly/monthly).
type RatingUpdateMode string

const (
	RatingUpdateImmediate RatingUpdateMode = "immediate"
	RatingUpdateWeekly    RatingUpdateMode = "weekly"
	RatingUpdateMonthly   RatingUpdateMode = "monthly"
)

func (m RatingUpdateMode) Valid() bool {
	switch m {
	case RatingUpdateImmediate, RatingUpdateWeekly, RatingUpdateMonthly:
		return true
	}
	return false
}

// Deferred reports whether rating application for the league is left to
// consolidation instead of happening at acceptance time.
func (m RatingUpdateMode) Deferred() bool {
	return m == RatingUpdateWeekly || m == RatingUpdateMonthly
}

type League struct {
	ID               int              `json:"id"`
	Name             string           `json:"name"`
	RatingUpdateMode RatingUpdateMode `json:"rating_update_mode"`
	CreatorID        int              `json:"creator_id"`
	CreatedAt        time.Time        `json:"created_at"`
}
