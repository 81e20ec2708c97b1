package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/rating"
	"github.com/Dosada05/league-rating-system/repositories"
	"github.com/Dosada05/league-rating-system/store"
)

// ResultInput is a claimed match result as reported by a player.
type ResultInput struct {
	SetsWon1 int                `json:"sets_won1"`
	SetsWon2 int                `json:"sets_won2"`
	Points1  int                `json:"points1"`
	Points2  int                `json:"points2"`
	Format   models.MatchFormat `json:"format"`
	Sets     []SetInput         `json:"sets,omitempty"`
}

type SetInput struct {
	Points1 int `json:"points1"`
	Points2 int `json:"points2"`
}

type SubmitMatchInput struct {
	LeagueID         int
	ReporterUserID   int
	ReporterRosterID int
	OpponentRosterID int
	Result           ResultInput
}

type PreviewInput struct {
	LeagueID        int
	UserID          int
	Player1RosterID int
	Player2RosterID int
	SetsWon1        int
	SetsWon2        int
	Points1         int
	Points2         int
	Format          models.MatchFormat
}

type SubmitResult struct {
	Match   *models.Match   `json:"match"`
	Preview *rating.Outcome `json:"preview"`
}

// AcceptResult carries the committed rating changes for immediate-mode
// leagues; RatingChanges is nil when application was deferred.
type AcceptResult struct {
	Match         *models.Match               `json:"match"`
	RatingChanges []models.RatingHistoryEntry `json:"rating_changes,omitempty"`
}

type MatchService interface {
	Preview(ctx context.Context, input PreviewInput) (*rating.Outcome, error)
	Submit(ctx context.Context, input SubmitMatchInput) (*SubmitResult, error)
	Accept(ctx context.Context, matchID, actingUserID int) (*AcceptResult, error)
	Reject(ctx context.Context, matchID, actingUserID int, reason string) error
	Update(ctx context.Context, matchID, actingUserID int, result ResultInput) (*models.Match, error)
	GetByID(ctx context.Context, matchID int) (*models.Match, []models.SetScore, error)
	ListByLeague(ctx context.Context, leagueID int) ([]*models.Match, error)
}

type matchService struct {
	store       TxRunner
	leagues     repositories.LeagueRepository
	rosters     repositories.RosterRepository
	matches     repositories.MatchRepository
	setScores   repositories.SetScoreRepository
	history     repositories.RatingHistoryRepository
	users       repositories.UserRepository
	notifier    Notifier
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewMatchService(
	txRunner TxRunner,
	leagueRepo repositories.LeagueRepository,
	rosterRepo repositories.RosterRepository,
	matchRepo repositories.MatchRepository,
	setScoreRepo repositories.SetScoreRepository,
	historyRepo repositories.RatingHistoryRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
	broadcaster Broadcaster,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		store:       txRunner,
		leagues:     leagueRepo,
		rosters:     rosterRepo,
		matches:     matchRepo,
		setScores:   setScoreRepo,
		history:     historyRepo,
		users:       userRepo,
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *matchService) Preview(ctx context.Context, input PreviewInput) (*rating.Outcome, error) {
	if _, err := s.rosters.GetByLeagueAndUser(ctx, input.LeagueID, input.UserID); err != nil {
		if errors.Is(err, repositories.ErrRosterNotFound) {
			return nil, ErrNotLeagueMember
		}
		return nil, err
	}

	r1, r2, err := s.loadLeagueRosters(ctx, input.LeagueID, input.Player1RosterID, input.Player2RosterID)
	if err != nil {
		return nil, err
	}

	if err := validateResultInput(ResultInput{
		SetsWon1: input.SetsWon1,
		SetsWon2: input.SetsWon2,
		Points1:  input.Points1,
		Points2:  input.Points2,
		Format:   input.Format,
	}); err != nil {
		return nil, err
	}

	out := rating.ComputeDelta(
		r1.Rating, r2.Rating,
		input.Points1, input.Points2,
		input.SetsWon1 > input.SetsWon2,
		input.SetsWon1, input.SetsWon2,
	)
	return &out, nil
}

func (s *matchService) Submit(ctx context.Context, input SubmitMatchInput) (*SubmitResult, error) {
	reporter, opponent, err := s.loadLeagueRosters(ctx, input.LeagueID, input.ReporterRosterID, input.OpponentRosterID)
	if err != nil {
		return nil, err
	}
	if reporter.UserID == nil || *reporter.UserID != input.ReporterUserID {
		return nil, ErrForbiddenOperation
	}

	if err := validateResultInput(input.Result); err != nil {
		return nil, err
	}

	res := input.Result
	p1Won := res.SetsWon1 > res.SetsWon2
	out := rating.ComputeDelta(reporter.Rating, opponent.Rating, res.Points1, res.Points2, p1Won, res.SetsWon1, res.SetsWon2)

	winnerID := reporter.ID
	if !p1Won {
		winnerID = opponent.ID
	}

	now := time.Now().UTC()
	match := &models.Match{
		LeagueID:        input.LeagueID,
		Player1RosterID: reporter.ID,
		Player2RosterID: opponent.ID,
		SetsWon1:        res.SetsWon1,
		SetsWon2:        res.SetsWon2,
		Points1:         res.Points1,
		Points2:         res.Points2,
		Format:          res.Format,
		WinnerRosterID:  winnerID,
		Rating1Before:   reporter.Rating,
		Rating1After:    out.NewRating1,
		Rating2Before:   opponent.Rating,
		Rating2After:    out.NewRating2,
		State:           models.StateSubmitted,
		CreatedAt:       now,
	}

	err = s.store.WithTx(ctx, func(ex store.Executor) error {
		if err := s.matches.Create(ctx, ex, match); err != nil {
			return err
		}
		if len(res.Sets) > 0 {
			if err := s.setScores.ReplaceForMatch(ctx, ex, match.ID, setInputsToModels(res.Sets)); err != nil {
				return err
			}
		}
		message := fmt.Sprintf("%s reported a %d-%d result against you", reporter.DisplayName, res.SetsWon1, res.SetsWon2)
		return s.notifier.NotifyTx(ctx, ex, opponent.UserID, models.NotificationMatchSubmitted, "Match result submitted", message, match.ID)
	})
	if err != nil {
		return nil, err
	}

	s.publish(match.LeagueID, "match_submitted", match)
	return &SubmitResult{Match: match, Preview: &out}, nil
}

func (s *matchService) Accept(ctx context.Context, matchID, actingUserID int) (*AcceptResult, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.State != models.StateSubmitted {
		return nil, ErrMatchAlreadyAccepted
	}

	league, err := s.getLeague(ctx, match.LeagueID)
	if err != nil {
		return nil, err
	}
	if err := requireLeagueAdmin(ctx, s.users, s.rosters, league.ID, actingUserID); err != nil {
		return nil, err
	}

	if league.RatingUpdateMode.Deferred() {
		return s.acceptDeferred(ctx, match)
	}
	return s.acceptImmediate(ctx, match)
}

// acceptImmediate commits the provisional rating-after snapshots in one
// transaction. History deltas are computed against the roster ratings
// read inside this transaction, not the original preview, so a stale
// snapshot never silently shifts a player by more than what was actually
// applied.
func (s *matchService) acceptImmediate(ctx context.Context, match *models.Match) (*AcceptResult, error) {
	now := time.Now().UTC()
	var changes []models.RatingHistoryEntry

	err := s.store.WithTx(ctx, func(ex store.Executor) error {
		if err := s.matches.MarkAccepted(ctx, ex, match.ID, models.StateAcceptedApplied, now, &now); err != nil {
			if errors.Is(err, repositories.ErrMatchStateConflict) {
				return ErrMatchAlreadyAccepted
			}
			return err
		}

		r1, err := s.rosters.GetByID(ctx, ex, match.Player1RosterID)
		if err != nil {
			return err
		}
		r2, err := s.rosters.GetByID(ctx, ex, match.Player2RosterID)
		if err != nil {
			return err
		}

		if err := s.rosters.UpdateRating(ctx, ex, r1.ID, match.Rating1After); err != nil {
			return err
		}
		if err := s.rosters.UpdateRating(ctx, ex, r2.ID, match.Rating2After); err != nil {
			return err
		}

		changes = []models.RatingHistoryEntry{
			{RosterID: r1.ID, LeagueID: match.LeagueID, MatchID: match.ID, RatingBefore: r1.Rating, RatingAfter: match.Rating1After, Delta: match.Rating1After - r1.Rating, CreatedAt: now},
			{RosterID: r2.ID, LeagueID: match.LeagueID, MatchID: match.ID, RatingBefore: r2.Rating, RatingAfter: match.Rating2After, Delta: match.Rating2After - r2.Rating, CreatedAt: now},
		}
		for i := range changes {
			if err := s.history.Create(ctx, ex, &changes[i]); err != nil {
				return err
			}
		}

		title := "Match accepted"
		if err := s.notifier.NotifyTx(ctx, ex, r1.UserID, models.NotificationMatchAccepted, title,
			fmt.Sprintf("Your match was accepted; rating changed from %d to %d", r1.Rating, match.Rating1After), match.ID); err != nil {
			return err
		}
		return s.notifier.NotifyTx(ctx, ex, r2.UserID, models.NotificationMatchAccepted, title,
			fmt.Sprintf("Your match was accepted; rating changed from %d to %d", r2.Rating, match.Rating2After), match.ID)
	})
	if err != nil {
		return nil, err
	}

	match.State = models.StateAcceptedApplied
	match.AcceptedAt = &now
	match.RatingAppliedAt = &now

	s.publish(match.LeagueID, "ratings_applied", changes)
	return &AcceptResult{Match: match, RatingChanges: changes}, nil
}

func (s *matchService) acceptDeferred(ctx context.Context, match *models.Match) (*AcceptResult, error) {
	now := time.Now().UTC()

	err := s.store.WithTx(ctx, func(ex store.Executor) error {
		if err := s.matches.MarkAccepted(ctx, ex, match.ID, models.StateAcceptedPending, now, nil); err != nil {
			if errors.Is(err, repositories.ErrMatchStateConflict) {
				return ErrMatchAlreadyAccepted
			}
			return err
		}

		r1, err := s.rosters.GetByID(ctx, ex, match.Player1RosterID)
		if err != nil {
			return err
		}
		r2, err := s.rosters.GetByID(ctx, ex, match.Player2RosterID)
		if err != nil {
			return err
		}

		title := "Match accepted"
		message := "Your match was accepted; the rating change will be applied at the next consolidation"
		if err := s.notifier.NotifyTx(ctx, ex, r1.UserID, models.NotificationMatchDeferred, title, message, match.ID); err != nil {
			return err
		}
		return s.notifier.NotifyTx(ctx, ex, r2.UserID, models.NotificationMatchDeferred, title, message, match.ID)
	})
	if err != nil {
		return nil, err
	}

	match.State = models.StateAcceptedPending
	match.AcceptedAt = &now

	s.publish(match.LeagueID, "match_accepted", match)
	return &AcceptResult{Match: match}, nil
}

func (s *matchService) Reject(ctx context.Context, matchID, actingUserID int, reason string) error {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if match.State != models.StateSubmitted {
		// Accepted results are immutable except via consolidation.
		return ErrMatchAlreadyAccepted
	}
	if err := requireLeagueAdmin(ctx, s.users, s.rosters, match.LeagueID, actingUserID); err != nil {
		return err
	}

	r1, err := s.rosters.GetByID(ctx, nil, match.Player1RosterID)
	if err != nil {
		return err
	}
	r2, err := s.rosters.GetByID(ctx, nil, match.Player2RosterID)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(ex store.Executor) error {
		if err := s.setScores.DeleteForMatch(ctx, ex, match.ID); err != nil {
			return err
		}
		if err := s.matches.Delete(ctx, ex, match.ID); err != nil {
			return err
		}
		title := "Match rejected"
		message := fmt.Sprintf("Your match result was rejected: %s", reason)
		if err := s.notifier.NotifyTx(ctx, ex, r1.UserID, models.NotificationMatchRejected, title, message, match.ID); err != nil {
			return err
		}
		return s.notifier.NotifyTx(ctx, ex, r2.UserID, models.NotificationMatchRejected, title, message, match.ID)
	})
	if err != nil {
		return err
	}

	s.publish(match.LeagueID, "match_rejected", match.ID)
	return nil
}

// Update replaces an unaccepted match's claimed result. Only a
// participant may correct their own submission; the provisional snapshots
// are recomputed against the rosters' current ratings.
func (s *matchService) Update(ctx context.Context, matchID, actingUserID int, result ResultInput) (*models.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.State != models.StateSubmitted {
		return nil, ErrMatchAlreadyAccepted
	}

	r1, err := s.rosters.GetByID(ctx, nil, match.Player1RosterID)
	if err != nil {
		return nil, err
	}
	r2, err := s.rosters.GetByID(ctx, nil, match.Player2RosterID)
	if err != nil {
		return nil, err
	}

	isParticipant := (r1.UserID != nil && *r1.UserID == actingUserID) ||
		(r2.UserID != nil && *r2.UserID == actingUserID)
	if !isParticipant {
		return nil, ErrParticipantOnly
	}

	if err := validateResultInput(result); err != nil {
		return nil, err
	}

	p1Won := result.SetsWon1 > result.SetsWon2
	out := rating.ComputeDelta(r1.Rating, r2.Rating, result.Points1, result.Points2, p1Won, result.SetsWon1, result.SetsWon2)

	match.SetsWon1 = result.SetsWon1
	match.SetsWon2 = result.SetsWon2
	match.Points1 = result.Points1
	match.Points2 = result.Points2
	match.Format = result.Format
	match.WinnerRosterID = r1.ID
	if !p1Won {
		match.WinnerRosterID = r2.ID
	}
	match.Rating1Before = r1.Rating
	match.Rating1After = out.NewRating1
	match.Rating2Before = r2.Rating
	match.Rating2After = out.NewRating2

	err = s.store.WithTx(ctx, func(ex store.Executor) error {
		if err := s.matches.UpdateResult(ctx, ex, match); err != nil {
			if errors.Is(err, repositories.ErrMatchStateConflict) {
				return ErrMatchAlreadyAccepted
			}
			return err
		}
		return s.setScores.ReplaceForMatch(ctx, ex, match.ID, setInputsToModels(result.Sets))
	})
	if err != nil {
		return nil, err
	}

	s.publish(match.LeagueID, "match_updated", match)
	return match, nil
}

func (s *matchService) GetByID(ctx context.Context, matchID int) (*models.Match, []models.SetScore, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	sets, err := s.setScores.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	return match, sets, nil
}

func (s *matchService) ListByLeague(ctx context.Context, leagueID int) ([]*models.Match, error) {
	if _, err := s.getLeague(ctx, leagueID); err != nil {
		return nil, err
	}
	return s.matches.ListByLeague(ctx, leagueID)
}

func (s *matchService) getMatch(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) getLeague(ctx context.Context, id int) (*models.League, error) {
	league, err := s.leagues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return league, nil
}

// loadLeagueRosters loads two distinct roster entries and checks both
// belong to the league.
func (s *matchService) loadLeagueRosters(ctx context.Context, leagueID, id1, id2 int) (*models.RosterEntry, *models.RosterEntry, error) {
	if id1 == id2 {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidationFailed, ErrRostersSameEntry)
	}
	if _, err := s.getLeague(ctx, leagueID); err != nil {
		return nil, nil, err
	}

	r1, err := s.rosters.GetByID(ctx, nil, id1)
	if err != nil {
		if errors.Is(err, repositories.ErrRosterNotFound) {
			return nil, nil, ErrRosterNotFound
		}
		return nil, nil, err
	}
	r2, err := s.rosters.GetByID(ctx, nil, id2)
	if err != nil {
		if errors.Is(err, repositories.ErrRosterNotFound) {
			return nil, nil, ErrRosterNotFound
		}
		return nil, nil, err
	}
	if r1.LeagueID != leagueID || r2.LeagueID != leagueID {
		return nil, nil, ErrNotLeagueMember
	}
	return r1, r2, nil
}

func (s *matchService) publish(leagueID int, eventType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(leagueID, eventType, payload)
}

func validateResultInput(result ResultInput) error {
	if result.Points1 < 0 || result.Points2 < 0 {
		return fmt.Errorf("%w: points must not be negative", ErrValidationFailed)
	}
	if err := rating.ValidateResult(result.SetsWon1, result.SetsWon2, result.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if len(result.Sets) > 0 && len(result.Sets) != result.SetsWon1+result.SetsWon2 {
		return fmt.Errorf("%w: %d set scores provided for %d sets played",
			ErrValidationFailed, len(result.Sets), result.SetsWon1+result.SetsWon2)
	}
	return nil
}

func setInputsToModels(sets []SetInput) []models.SetScore {
	out := make([]models.SetScore, len(sets))
	for i, set := range sets {
		out[i] = models.SetScore{SetNumber: i + 1, Points1: set.Points1, Points2: set.Points2}
	}
	return out
}
