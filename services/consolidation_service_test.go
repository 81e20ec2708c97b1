package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/rating"
)

func newConsolidationEnv(mode models.RatingUpdateMode) (*fakeEnv, ConsolidationService) {
	env := newFakeEnv()
	env.addLeague(2, mode)
	env.addUser(20, models.RolePlayer)
	env.addUser(21, models.RolePlayer)
	env.addUser(22, models.RolePlayer)
	env.addUser(23, models.RolePlayer)
	env.addRoster(200, 2, 20, 1000, true)
	env.addRoster(201, 2, 21, 1000, false)
	env.addRoster(202, 2, 22, 1000, false)
	env.addRoster(203, 2, 23, 1000, false)

	svc := NewConsolidationService(
		fakeTxRunner{},
		&fakeLeagueRepo{env},
		&fakeRosterRepo{env},
		&fakeMatchRepo{env},
		&fakeHistoryRepo{env},
		&fakeUserRepo{env},
		&fakeNotifier{env},
		&fakeBroadcaster{},
		discardLogger(),
	)
	return env, svc
}

func pendingMatch(env *fakeEnv, winnerID, loserID int, acceptedAt time.Time) *models.Match {
	return env.addMatch(&models.Match{
		LeagueID:        2,
		Player1RosterID: winnerID,
		Player2RosterID: loserID,
		SetsWon1:        2,
		SetsWon2:        0,
		Points1:         22,
		Points2:         10,
		Format:          models.FormatBestOf3,
		WinnerRosterID:  winnerID,
		State:           models.StateAcceptedPending,
		AcceptedAt:      &acceptedAt,
	})
}

func TestConsolidateAppliesInAcceptanceOrder(t *testing.T) {
	env, svc := newConsolidationEnv(models.RatingUpdateWeekly)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m1 := pendingMatch(env, 201, 202, base)
	m2 := pendingMatch(env, 201, 203, base.Add(time.Hour))

	applied, err := svc.Consolidate(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}

	// The second match must see the first match's effect on roster 201.
	first := rating.ComputeDelta(1000, 1000, 22, 10, true, 2, 0)
	second := rating.ComputeDelta(first.NewRating1, 1000, 22, 10, true, 2, 0)

	if got := env.rosters[201].Rating; got != second.NewRating1 {
		t.Errorf("roster 201 rating = %d, want %d", got, second.NewRating1)
	}
	if got := env.rosters[202].Rating; got != first.NewRating2 {
		t.Errorf("roster 202 rating = %d, want %d", got, first.NewRating2)
	}
	if got := env.rosters[203].Rating; got != second.NewRating2 {
		t.Errorf("roster 203 rating = %d, want %d", got, second.NewRating2)
	}

	stored2 := env.matches[m2.ID]
	if stored2.Rating1Before != first.NewRating1 {
		t.Errorf("second match rating1_before = %d, want %d", stored2.Rating1Before, first.NewRating1)
	}
	for _, id := range []int{m1.ID, m2.ID} {
		m := env.matches[id]
		if m.State != models.StateAcceptedApplied {
			t.Errorf("match %d state = %q, want %q", id, m.State, models.StateAcceptedApplied)
		}
		if m.RatingAppliedAt == nil {
			t.Errorf("match %d rating_applied_at not set", id)
		}
	}

	if len(env.history) != 4 {
		t.Errorf("history rows = %d, want 4", len(env.history))
	}
	if len(env.notifications) != 4 {
		t.Errorf("notifications = %d, want 4", len(env.notifications))
	}
}

func TestConsolidateIsIdempotent(t *testing.T) {
	env, svc := newConsolidationEnv(models.RatingUpdateMonthly)
	pendingMatch(env, 201, 202, time.Now().UTC())

	if _, err := svc.Consolidate(context.Background(), 2, 20); err != nil {
		t.Fatalf("first Consolidate: %v", err)
	}
	r201 := env.rosters[201].Rating

	applied, err := svc.Consolidate(context.Background(), 2, 20)
	if err != nil {
		t.Fatalf("second Consolidate: %v", err)
	}
	if applied != 0 {
		t.Errorf("second run applied = %d, want 0", applied)
	}
	if env.rosters[201].Rating != r201 {
		t.Error("second run must not move ratings")
	}
}

func TestConsolidateImmediateModeLeague(t *testing.T) {
	_, svc := newConsolidationEnv(models.RatingUpdateImmediate)

	if _, err := svc.Consolidate(context.Background(), 2, 20); !errors.Is(err, ErrImmediateModeLeague) {
		t.Errorf("Consolidate = %v, want %v", err, ErrImmediateModeLeague)
	}
}

func TestConsolidateRequiresLeagueAdmin(t *testing.T) {
	env, svc := newConsolidationEnv(models.RatingUpdateWeekly)
	pendingMatch(env, 201, 202, time.Now().UTC())

	if _, err := svc.Consolidate(context.Background(), 2, 21); !errors.Is(err, ErrNotLeagueAdmin) {
		t.Errorf("Consolidate by non-admin = %v, want %v", err, ErrNotLeagueAdmin)
	}
}

func TestConsolidateUnknownLeague(t *testing.T) {
	_, svc := newConsolidationEnv(models.RatingUpdateWeekly)

	if _, err := svc.Consolidate(context.Background(), 99, 20); !errors.Is(err, ErrLeagueNotFound) {
		t.Errorf("Consolidate = %v, want %v", err, ErrLeagueNotFound)
	}
}

func TestConsolidateStopsAtFirstFailure(t *testing.T) {
	env, svc := newConsolidationEnv(models.RatingUpdateWeekly)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m1 := pendingMatch(env, 201, 202, base)
	m2 := pendingMatch(env, 202, 203, base.Add(time.Hour))
	m3 := pendingMatch(env, 203, 201, base.Add(2*time.Hour))
	env.failApplyMatchID = m2.ID

	applied, err := svc.Consolidate(context.Background(), 2, 20)
	if err == nil {
		t.Fatal("expected an error")
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}

	if env.matches[m1.ID].State != models.StateAcceptedApplied {
		t.Error("first match should stay applied")
	}
	if env.matches[m2.ID].State != models.StateAcceptedPending {
		t.Error("failed match must stay pending")
	}
	if env.matches[m3.ID].State != models.StateAcceptedPending {
		t.Error("matches after the failure must not be applied")
	}
}
