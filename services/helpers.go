package services

import (
	"context"
	"errors"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/repositories"
	"github.com/Dosada05/league-rating-system/store"
)

// TxRunner is the transaction surface services need from the store;
// *store.Store satisfies it, tests substitute an in-memory runner.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ex store.Executor) error) error
}

// requireLeagueAdmin passes for global admins and for league members whose
// roster entry carries the admin flag.
func requireLeagueAdmin(ctx context.Context, users repositories.UserRepository, rosters repositories.RosterRepository, leagueID, userID int) error {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrForbiddenOperation
		}
		return err
	}
	if user.Role == models.RoleAdmin {
		return nil
	}

	entry, err := rosters.GetByLeagueAndUser(ctx, leagueID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRosterNotFound) {
			return ErrNotLeagueAdmin
		}
		return err
	}
	if !entry.IsAdmin {
		return ErrNotLeagueAdmin
	}
	return nil
}
