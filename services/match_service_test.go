package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/rating"
)

func newMatchServiceEnv(mode models.RatingUpdateMode) (*fakeEnv, MatchService, *fakeBroadcaster) {
	env := newFakeEnv()
	env.addLeague(1, mode)
	env.addUser(10, models.RolePlayer)
	env.addUser(11, models.RolePlayer)
	env.addRoster(100, 1, 10, 1200, true)
	env.addRoster(101, 1, 11, 1200, false)

	broadcaster := &fakeBroadcaster{}
	svc := NewMatchService(
		fakeTxRunner{},
		&fakeLeagueRepo{env},
		&fakeRosterRepo{env},
		&fakeMatchRepo{env},
		&fakeSetScoreRepo{env},
		&fakeHistoryRepo{env},
		&fakeUserRepo{env},
		&fakeNotifier{env},
		broadcaster,
		discardLogger(),
	)
	return env, svc, broadcaster
}

func validResult() ResultInput {
	return ResultInput{
		SetsWon1: 2,
		SetsWon2: 1,
		Points1:  33,
		Points2:  22,
		Format:   models.FormatBestOf3,
	}
}

func TestSubmitCreatesProvisionalMatch(t *testing.T) {
	env, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	res, err := svc.Submit(context.Background(), SubmitMatchInput{
		LeagueID:         1,
		ReporterUserID:   10,
		ReporterRosterID: 100,
		OpponentRosterID: 101,
		Result:           validResult(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	match := res.Match
	if match.State != models.StateSubmitted {
		t.Errorf("state = %q, want %q", match.State, models.StateSubmitted)
	}
	if match.WinnerRosterID != 100 {
		t.Errorf("winner = %d, want 100", match.WinnerRosterID)
	}

	want := rating.ComputeDelta(1200, 1200, 33, 22, true, 2, 1)
	if match.Rating1After != want.NewRating1 || match.Rating2After != want.NewRating2 {
		t.Errorf("provisional ratings = %d/%d, want %d/%d",
			match.Rating1After, match.Rating2After, want.NewRating1, want.NewRating2)
	}
	if env.rosters[100].Rating != 1200 || env.rosters[101].Rating != 1200 {
		t.Error("submission must not touch roster ratings")
	}
	if len(env.notifications) != 1 || env.notifications[0].UserID != 11 {
		t.Fatalf("expected one notification for the opponent, got %+v", env.notifications)
	}
	if env.notifications[0].Type != models.NotificationMatchSubmitted {
		t.Errorf("notification type = %q", env.notifications[0].Type)
	}
}

func TestSubmitValidation(t *testing.T) {
	_, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	base := SubmitMatchInput{LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101}

	tests := []struct {
		name    string
		mutate  func(*SubmitMatchInput)
		wantErr error
	}{
		{
			name:    "reporter does not own roster",
			mutate:  func(in *SubmitMatchInput) { in.ReporterUserID = 11 },
			wantErr: ErrForbiddenOperation,
		},
		{
			name:    "same roster on both sides",
			mutate:  func(in *SubmitMatchInput) { in.OpponentRosterID = 100 },
			wantErr: ErrValidationFailed,
		},
		{
			name:    "unknown opponent roster",
			mutate:  func(in *SubmitMatchInput) { in.OpponentRosterID = 999 },
			wantErr: ErrRosterNotFound,
		},
		{
			name:    "drawn result",
			mutate:  func(in *SubmitMatchInput) { in.Result.SetsWon2 = 2 },
			wantErr: ErrValidationFailed,
		},
		{
			name:    "negative points",
			mutate:  func(in *SubmitMatchInput) { in.Result.Points1 = 100; in.Result.Points2 = -68 },
			wantErr: ErrValidationFailed,
		},
		{
			name:    "winner short of format",
			mutate:  func(in *SubmitMatchInput) { in.Result.SetsWon1 = 1; in.Result.SetsWon2 = 0 },
			wantErr: ErrValidationFailed,
		},
		{
			name: "set scores count mismatch",
			mutate: func(in *SubmitMatchInput) {
				in.Result.Sets = []SetInput{{Points1: 11, Points2: 7}}
			},
			wantErr: ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base
			input.Result = validResult()
			tt.mutate(&input)
			_, err := svc.Submit(context.Background(), input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAcceptImmediateAppliesRatings(t *testing.T) {
	env, svc, broadcaster := newMatchServiceEnv(models.RatingUpdateImmediate)

	res, err := svc.Submit(context.Background(), SubmitMatchInput{
		LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101,
		Result: validResult(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	env.notifications = nil

	accepted, err := svc.Accept(context.Background(), res.Match.ID, 10)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if accepted.Match.State != models.StateAcceptedApplied {
		t.Errorf("state = %q, want %q", accepted.Match.State, models.StateAcceptedApplied)
	}
	if accepted.Match.AcceptedAt == nil || accepted.Match.RatingAppliedAt == nil {
		t.Error("accept timestamps not set")
	}

	if got := env.rosters[100].Rating; got != res.Match.Rating1After {
		t.Errorf("roster 100 rating = %d, want %d", got, res.Match.Rating1After)
	}
	if got := env.rosters[101].Rating; got != res.Match.Rating2After {
		t.Errorf("roster 101 rating = %d, want %d", got, res.Match.Rating2After)
	}

	if len(accepted.RatingChanges) != 2 {
		t.Fatalf("rating changes = %d, want 2", len(accepted.RatingChanges))
	}
	if sum := accepted.RatingChanges[0].Delta + accepted.RatingChanges[1].Delta; sum != 0 {
		t.Errorf("deltas not zero sum: %d", sum)
	}
	if len(env.history) != 2 {
		t.Errorf("history rows = %d, want 2", len(env.history))
	}
	if len(env.notifications) != 2 {
		t.Errorf("notifications = %d, want 2", len(env.notifications))
	}
	if len(broadcaster.events) == 0 {
		t.Error("expected a broadcast event")
	}
}

func TestAcceptTwiceConflicts(t *testing.T) {
	env, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	res, err := svc.Submit(context.Background(), SubmitMatchInput{
		LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101,
		Result: validResult(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Accept(context.Background(), res.Match.ID, 10); err != nil {
		t.Fatalf("first Accept: %v", err)
	}

	historyLen := len(env.history)
	r100 := env.rosters[100].Rating

	_, err = svc.Accept(context.Background(), res.Match.ID, 10)
	if !errors.Is(err, ErrMatchAlreadyAccepted) {
		t.Fatalf("second Accept error = %v, want %v", err, ErrMatchAlreadyAccepted)
	}
	if len(env.history) != historyLen || env.rosters[100].Rating != r100 {
		t.Error("second accept must not write anything")
	}
}

func TestAcceptDeferredLeavesRatings(t *testing.T) {
	env, svc, _ := newMatchServiceEnv(models.RatingUpdateWeekly)

	res, err := svc.Submit(context.Background(), SubmitMatchInput{
		LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101,
		Result: validResult(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	accepted, err := svc.Accept(context.Background(), res.Match.ID, 10)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if accepted.Match.State != models.StateAcceptedPending {
		t.Errorf("state = %q, want %q", accepted.Match.State, models.StateAcceptedPending)
	}
	if accepted.Match.RatingAppliedAt != nil {
		t.Error("deferred accept must not set rating_applied_at")
	}
	if accepted.RatingChanges != nil {
		t.Error("deferred accept must not report rating changes")
	}
	if env.rosters[100].Rating != 1200 || env.rosters[101].Rating != 1200 {
		t.Error("deferred accept must not touch roster ratings")
	}
	if len(env.history) != 0 {
		t.Error("deferred accept must not write history")
	}
}

func TestAcceptRequiresLeagueAdmin(t *testing.T) {
	_, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	res, err := svc.Submit(context.Background(), SubmitMatchInput{
		LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101,
		Result: validResult(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.Accept(context.Background(), res.Match.ID, 11); !errors.Is(err, ErrNotLeagueAdmin) {
		t.Errorf("Accept by non-admin = %v, want %v", err, ErrNotLeagueAdmin)
	}
}

func TestRejectDeletesSubmittedMatch(t *testing.T) {
	env, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	input := SubmitMatchInput{
		LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101,
		Result: validResult(),
	}
	input.Result.Sets = []SetInput{{11, 5}, {7, 11}, {11, 9}}
	res, err := svc.Submit(context.Background(), input)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	env.notifications = nil

	if err := svc.Reject(context.Background(), res.Match.ID, 10, "typo in the score"); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if _, ok := env.matches[res.Match.ID]; ok {
		t.Error("rejected match must be deleted")
	}
	if _, ok := env.sets[res.Match.ID]; ok {
		t.Error("rejected match's set scores must be deleted")
	}
	if len(env.notifications) != 2 {
		t.Errorf("notifications = %d, want 2", len(env.notifications))
	}
}

func TestRejectAcceptedMatchConflicts(t *testing.T) {
	_, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	res, err := svc.Submit(context.Background(), SubmitMatchInput{
		LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101,
		Result: validResult(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Accept(context.Background(), res.Match.ID, 10); err != nil {
		t.Fatalf("Accept: %v", err)
	}

	if err := svc.Reject(context.Background(), res.Match.ID, 10, "no"); !errors.Is(err, ErrMatchAlreadyAccepted) {
		t.Errorf("Reject accepted = %v, want %v", err, ErrMatchAlreadyAccepted)
	}
}

func TestUpdateRecomputesProvisionalRatings(t *testing.T) {
	env, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	res, err := svc.Submit(context.Background(), SubmitMatchInput{
		LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101,
		Result: validResult(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	corrected := ResultInput{SetsWon1: 0, SetsWon2: 2, Points1: 14, Points2: 22, Format: models.FormatBestOf3}
	updated, err := svc.Update(context.Background(), res.Match.ID, 11, corrected)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.WinnerRosterID != 101 {
		t.Errorf("winner = %d, want 101", updated.WinnerRosterID)
	}
	want := rating.ComputeDelta(1200, 1200, 14, 22, false, 0, 2)
	if updated.Rating1After != want.NewRating1 || updated.Rating2After != want.NewRating2 {
		t.Errorf("provisional ratings = %d/%d, want %d/%d",
			updated.Rating1After, updated.Rating2After, want.NewRating1, want.NewRating2)
	}
	if env.matches[res.Match.ID].SetsWon2 != 2 {
		t.Error("stored match not updated")
	}
}

func TestUpdateByNonParticipant(t *testing.T) {
	env, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)
	env.addUser(12, models.RolePlayer)

	res, err := svc.Submit(context.Background(), SubmitMatchInput{
		LeagueID: 1, ReporterUserID: 10, ReporterRosterID: 100, OpponentRosterID: 101,
		Result: validResult(),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.Update(context.Background(), res.Match.ID, 12, validResult()); !errors.Is(err, ErrParticipantOnly) {
		t.Errorf("Update by outsider = %v, want %v", err, ErrParticipantOnly)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	env, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	out, err := svc.Preview(context.Background(), PreviewInput{
		LeagueID: 1, UserID: 10,
		Player1RosterID: 100, Player2RosterID: 101,
		SetsWon1: 2, SetsWon2: 0, Points1: 22, Points2: 10,
		Format: models.FormatBestOf3,
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	if out.NewRating1 != 1217 || out.NewRating2 != 1183 {
		t.Errorf("preview = %d/%d, want 1217/1183", out.NewRating1, out.NewRating2)
	}
	if len(env.matches) != 0 {
		t.Error("preview must not create matches")
	}
	if env.rosters[100].Rating != 1200 {
		t.Error("preview must not touch ratings")
	}
}

func TestPreviewRejectsNegativePoints(t *testing.T) {
	_, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)

	_, err := svc.Preview(context.Background(), PreviewInput{
		LeagueID: 1, UserID: 10,
		Player1RosterID: 100, Player2RosterID: 101,
		SetsWon1: 2, SetsWon2: 0, Points1: 100, Points2: -68,
		Format: models.FormatBestOf3,
	})
	if !errors.Is(err, ErrValidationFailed) {
		t.Errorf("Preview with negative points = %v, want %v", err, ErrValidationFailed)
	}
}

func TestPreviewRequiresMembership(t *testing.T) {
	env, svc, _ := newMatchServiceEnv(models.RatingUpdateImmediate)
	env.addUser(12, models.RolePlayer)

	_, err := svc.Preview(context.Background(), PreviewInput{
		LeagueID: 1, UserID: 12,
		Player1RosterID: 100, Player2RosterID: 101,
		SetsWon1: 2, SetsWon2: 0, Points1: 22, Points2: 10,
		Format: models.FormatBestOf3,
	})
	if !errors.Is(err, ErrNotLeagueMember) {
		t.Errorf("Preview by outsider = %v, want %v", err, ErrNotLeagueMember)
	}
}
