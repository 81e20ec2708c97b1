package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/repositories"
	"github.com/Dosada05/league-rating-system/store"
)

// LeagueService covers league and roster management. These operations are
// plain request/response wrappers around the store; the rating engine
// only reads what they create.
type LeagueService interface {
	Create(ctx context.Context, name string, mode models.RatingUpdateMode, creatorUserID int) (*models.League, error)
	GetByID(ctx context.Context, id int) (*models.League, error)
	List(ctx context.Context) ([]*models.League, error)
	Join(ctx context.Context, leagueID, userID int) (*models.RosterEntry, error)
	Rosters(ctx context.Context, leagueID int) ([]*models.RosterEntry, error)
	RosterHistory(ctx context.Context, rosterID int) ([]*models.RatingHistoryEntry, error)
}

type leagueService struct {
	store   TxRunner
	leagues repositories.LeagueRepository
	rosters repositories.RosterRepository
	users   repositories.UserRepository
	history repositories.RatingHistoryRepository
}

func NewLeagueService(
	txRunner TxRunner,
	leagueRepo repositories.LeagueRepository,
	rosterRepo repositories.RosterRepository,
	userRepo repositories.UserRepository,
	historyRepo repositories.RatingHistoryRepository,
) LeagueService {
	return &leagueService{
		store:   txRunner,
		leagues: leagueRepo,
		rosters: rosterRepo,
		users:   userRepo,
		history: historyRepo,
	}
}

// Create creates a league and the creator's roster entry in one
// transaction; the creator becomes a league admin.
func (s *leagueService) Create(ctx context.Context, name string, mode models.RatingUpdateMode, creatorUserID int) (*models.League, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrLeagueNameRequired
	}
	if mode == "" {
		mode = models.RatingUpdateImmediate
	}
	if !mode.Valid() {
		return nil, ErrInvalidRatingMode
	}

	creator, err := s.users.GetByID(ctx, creatorUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	league := &models.League{
		Name:             name,
		RatingUpdateMode: mode,
		CreatorID:        creator.ID,
		CreatedAt:        now,
	}

	err = s.store.WithTx(ctx, func(ex store.Executor) error {
		if err := s.leagues.Create(ctx, ex, league); err != nil {
			return err
		}
		userID := creator.ID
		return s.rosters.Create(ctx, ex, &models.RosterEntry{
			LeagueID:    league.ID,
			UserID:      &userID,
			DisplayName: creator.Nickname,
			Rating:      models.DefaultRating,
			IsAdmin:     true,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}
	return league, nil
}

func (s *leagueService) GetByID(ctx context.Context, id int) (*models.League, error) {
	league, err := s.leagues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLeagueNotFound) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return league, nil
}

func (s *leagueService) List(ctx context.Context) ([]*models.League, error) {
	return s.leagues.List(ctx)
}

func (s *leagueService) Join(ctx context.Context, leagueID, userID int) (*models.RosterEntry, error) {
	if _, err := s.GetByID(ctx, leagueID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	entry := &models.RosterEntry{
		LeagueID:    leagueID,
		UserID:      &user.ID,
		DisplayName: user.Nickname,
		Rating:      models.DefaultRating,
		CreatedAt:   time.Now().UTC(),
	}
	err = s.store.WithTx(ctx, func(ex store.Executor) error {
		return s.rosters.Create(ctx, ex, entry)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrRosterMemberConflict) {
			return nil, ErrAlreadyLeagueMember
		}
		return nil, err
	}
	return entry, nil
}

func (s *leagueService) Rosters(ctx context.Context, leagueID int) ([]*models.RosterEntry, error) {
	if _, err := s.GetByID(ctx, leagueID); err != nil {
		return nil, err
	}
	return s.rosters.ListByLeague(ctx, leagueID)
}

// RosterHistory returns a roster's applied rating changes in the order
// they were committed.
func (s *leagueService) RosterHistory(ctx context.Context, rosterID int) ([]*models.RatingHistoryEntry, error) {
	if _, err := s.rosters.GetByID(ctx, nil, rosterID); err != nil {
		if errors.Is(err, repositories.ErrRosterNotFound) {
			return nil, ErrRosterNotFound
		}
		return nil, err
	}
	return s.history.ListByRoster(ctx, rosterID)
}
