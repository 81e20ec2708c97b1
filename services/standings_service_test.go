package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/league-rating-system/models"
)

func TestGetStandings(t *testing.T) {
	env := newFakeEnv()
	env.addLeague(1, models.RatingUpdateWeekly)
	env.addRoster(100, 1, 10, 1040, false)
	env.addRoster(101, 1, 11, 990, false)
	env.addRoster(102, 1, 12, 1010, false)

	now := time.Now().UTC()
	// 100 beat 101 (applied), 102 beat 100 (still pending).
	env.addMatch(&models.Match{
		LeagueID: 1, Player1RosterID: 100, Player2RosterID: 101, WinnerRosterID: 100,
		State: models.StateAcceptedApplied, AcceptedAt: &now, RatingAppliedAt: &now,
	})
	env.addMatch(&models.Match{
		LeagueID: 1, Player1RosterID: 102, Player2RosterID: 100, WinnerRosterID: 102,
		State: models.StateAcceptedPending, AcceptedAt: &now,
	})
	env.addMatch(&models.Match{
		LeagueID: 1, Player1RosterID: 101, Player2RosterID: 102, WinnerRosterID: 101,
		State: models.StateSubmitted,
	})

	svc := NewStandingsService(&fakeLeagueRepo{env}, &fakeRosterRepo{env}, &fakeMatchRepo{env})
	rows, err := svc.GetStandings(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetStandings: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	// Ordered by rating descending.
	if rows[0].RosterID != 100 || rows[1].RosterID != 102 || rows[2].RosterID != 101 {
		t.Fatalf("order = %d,%d,%d, want 100,102,101", rows[0].RosterID, rows[1].RosterID, rows[2].RosterID)
	}

	byID := map[int]StandingRow{}
	for _, row := range rows {
		byID[row.RosterID] = row
	}
	if r := byID[100]; r.Wins != 1 || r.Losses != 1 || r.Pending != 1 {
		t.Errorf("roster 100 = %+v", r)
	}
	if r := byID[101]; r.Wins != 0 || r.Losses != 1 || r.Pending != 0 {
		t.Errorf("roster 101 = %+v", r)
	}
	if r := byID[102]; r.Wins != 1 || r.Losses != 0 || r.Pending != 1 {
		t.Errorf("roster 102 = %+v", r)
	}
}

func TestGetStandingsUnknownLeague(t *testing.T) {
	env := newFakeEnv()
	svc := NewStandingsService(&fakeLeagueRepo{env}, &fakeRosterRepo{env}, &fakeMatchRepo{env})

	if _, err := svc.GetStandings(context.Background(), 7); !errors.Is(err, ErrLeagueNotFound) {
		t.Errorf("GetStandings = %v, want %v", err, ErrLeagueNotFound)
	}
}
