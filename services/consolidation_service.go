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

// consolidationBatchLimit bounds one consolidation run so a large backlog
// cannot hold a request open indefinitely. Callers repeat the call until
// the applied count comes back zero.
const consolidationBatchLimit = 200

type ConsolidationService interface {
	// Consolidate applies every pending deferred rating change for the
	// league in acceptance order. It stops at the first failure and
	// reports how many matches were applied before it; those stay
	// applied.
	Consolidate(ctx context.Context, leagueID, actingUserID int) (int, error)
}

type consolidationService struct {
	store       TxRunner
	leagues     repositories.LeagueRepository
	rosters     repositories.RosterRepository
	matches     repositories.MatchRepository
	history     repositories.RatingHistoryRepository
	users       repositories.UserRepository
	notifier    Notifier
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewConsolidationService(
	txRunner TxRunner,
	leagueRepo repositories.LeagueRepository,
	rosterRepo repositories.RosterRepository,
	matchRepo repositories.MatchRepository,
	historyRepo repositories.RatingHistoryRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
	broadcaster Broadcaster,
	logger *slog.Logger,
) ConsolidationService {
	return &consolidationService{
		store:       txRunner,
		leagues:     leagueRepo,
		rosters:     rosterRepo,
		matches:     matchRepo,
		history:     historyRepo,
		users:       userRepo,
		notifier:    notifier,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

func (s *consolidationService) Consolidate(ctx context.Context, leagueID, actingUserID int) (int, error) {
	league, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return 0, ErrLeagueNotFound
		}
		return 0, err
	}
	if !league.RatingUpdateMode.Deferred() {
		return 0, ErrImmediateModeLeague
	}
	if err := requireLeagueAdmin(ctx, s.users, s.rosters, leagueID, actingUserID); err != nil {
		return 0, err
	}

	pending, err := s.matches.ListPendingByLeague(ctx, leagueID, consolidationBatchLimit)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, match := range pending {
		if err := s.applyMatch(ctx, match); err != nil {
			// Fail fast: applying out of order would feed later matches
			// ratings that are missing an earlier match's effect.
			s.logger.Error("consolidation stopped",
				slog.Int("league_id", leagueID),
				slog.Int("match_id", match.ID),
				slog.Int("applied", applied),
				slog.Any("error", err))
			return applied, err
		}
		applied++
	}

	if applied > 0 {
		s.publish(leagueID, "league_consolidated", map[string]int{"applied": applied})
	}
	s.logger.Info("consolidation finished",
		slog.Int("league_id", leagueID),
		slog.Int("applied", applied))
	return applied, nil
}

// applyMatch consolidates one match in its own transaction. The delta is
// recomputed from the rosters' current ratings, read inside the same
// transaction that mutates them, so earlier matches in the run are fully
// visible and concurrent accepts cannot interleave.
func (s *consolidationService) applyMatch(ctx context.Context, match *models.Match) error {
	now := time.Now().UTC()

	return s.store.WithTx(ctx, func(ex store.Executor) error {
		r1, err := s.rosters.GetByID(ctx, ex, match.Player1RosterID)
		if err != nil {
			return err
		}
		r2, err := s.rosters.GetByID(ctx, ex, match.Player2RosterID)
		if err != nil {
			return err
		}

		p1Won := match.WinnerRosterID == match.Player1RosterID
		out := rating.ComputeDelta(r1.Rating, r2.Rating, match.Points1, match.Points2, p1Won, match.SetsWon1, match.SetsWon2)

		match.Rating1Before = r1.Rating
		match.Rating1After = out.NewRating1
		match.Rating2Before = r2.Rating
		match.Rating2After = out.NewRating2
		match.RatingAppliedAt = &now

		if err := s.matches.ApplyConsolidation(ctx, ex, match); err != nil {
			return err
		}
		if err := s.rosters.UpdateRating(ctx, ex, r1.ID, out.NewRating1); err != nil {
			return err
		}
		if err := s.rosters.UpdateRating(ctx, ex, r2.ID, out.NewRating2); err != nil {
			return err
		}

		entries := []models.RatingHistoryEntry{
			{RosterID: r1.ID, LeagueID: match.LeagueID, MatchID: match.ID, RatingBefore: r1.Rating, RatingAfter: out.NewRating1, Delta: out.Delta, CreatedAt: now},
			{RosterID: r2.ID, LeagueID: match.LeagueID, MatchID: match.ID, RatingBefore: r2.Rating, RatingAfter: out.NewRating2, Delta: -out.Delta, CreatedAt: now},
		}
		for i := range entries {
			if err := s.history.Create(ctx, ex, &entries[i]); err != nil {
				return err
			}
		}

		title := "Rating applied"
		if err := s.notifier.NotifyTx(ctx, ex, r1.UserID, models.NotificationRatingApplied, title,
			fmt.Sprintf("Your rating changed from %d to %d", r1.Rating, out.NewRating1), match.ID); err != nil {
			return err
		}
		return s.notifier.NotifyTx(ctx, ex, r2.UserID, models.NotificationRatingApplied, title,
			fmt.Sprintf("Your rating changed from %d to %d", r2.Rating, out.NewRating2), match.ID)
	})
}

func (s *consolidationService) publish(leagueID int, eventType string, payload interface{}) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(leagueID, eventType, payload)
}
