package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/store"
)

var (
	ErrRosterNotFound       = errors.New("roster entry not found")
	ErrRosterMemberConflict = errors.New("user already has a roster entry in this league")
)

type RosterRepository interface {
	Create(ctx context.Context, ex store.Executor, entry *models.RosterEntry) error
	GetByID(ctx context.Context, ex store.Executor, id int) (*models.RosterEntry, error)
	GetByLeagueAndUser(ctx context.Context, leagueID, userID int) (*models.RosterEntry, error)
	ListByLeague(ctx context.Context, leagueID int) ([]*models.RosterEntry, error)
	UpdateRating(ctx context.Context, ex store.Executor, rosterID, rating int) error
}

type sqlRosterRepository struct {
	store *store.Store
}

func NewRosterRepository(s *store.Store) RosterRepository {
	return &sqlRosterRepository{store: s}
}

const rosterColumns = `id, league_id, user_id, display_name, rating, is_admin, created_at`

func (r *sqlRosterRepository) Create(ctx context.Context, ex store.Executor, entry *models.RosterEntry) error {
	query := `
		INSERT INTO rosters (league_id, user_id, display_name, rating, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	id, err := ex.InsertID(ctx, query,
		entry.LeagueID,
		entry.UserID,
		entry.DisplayName,
		entry.Rating,
		entry.IsAdmin,
		entry.CreatedAt,
	)
	if err != nil {
		return handleRosterError(err)
	}
	entry.ID = id
	return nil
}

// GetByID reads a roster entry, through ex when the read must see or join
// a transaction's state (rating snapshots are always read this way).
func (r *sqlRosterRepository) GetByID(ctx context.Context, ex store.Executor, id int) (*models.RosterEntry, error) {
	if ex == nil {
		ex = r.store
	}
	query := `SELECT ` + rosterColumns + ` FROM rosters WHERE id = ?`
	return scanRoster(ex.QueryRowContext(ctx, query, id))
}

func (r *sqlRosterRepository) GetByLeagueAndUser(ctx context.Context, leagueID, userID int) (*models.RosterEntry, error) {
	query := `SELECT ` + rosterColumns + ` FROM rosters WHERE league_id = ? AND user_id = ?`
	return scanRoster(r.store.QueryRowContext(ctx, query, leagueID, userID))
}

func (r *sqlRosterRepository) ListByLeague(ctx context.Context, leagueID int) ([]*models.RosterEntry, error) {
	query := `SELECT ` + rosterColumns + ` FROM rosters WHERE league_id = ? ORDER BY rating DESC, id ASC`

	rows, err := r.store.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rosters for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	entries := make([]*models.RosterEntry, 0)
	for rows.Next() {
		entry := &models.RosterEntry{}
		if err := rows.Scan(
			&entry.ID,
			&entry.LeagueID,
			&entry.UserID,
			&entry.DisplayName,
			&entry.Rating,
			&entry.IsAdmin,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan roster row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during roster rows iteration: %w", err)
	}
	return entries, nil
}

func (r *sqlRosterRepository) UpdateRating(ctx context.Context, ex store.Executor, rosterID, rating int) error {
	result, err := ex.ExecContext(ctx, `UPDATE rosters SET rating = ? WHERE id = ?`, rating, rosterID)
	if err != nil {
		return fmt.Errorf("failed to update rating for roster %d: %w", rosterID, err)
	}
	return checkAffectedRows(result, ErrRosterNotFound)
}

func scanRoster(row *sql.Row) (*models.RosterEntry, error) {
	entry := &models.RosterEntry{}
	err := row.Scan(
		&entry.ID,
		&entry.LeagueID,
		&entry.UserID,
		&entry.DisplayName,
		&entry.Rating,
		&entry.IsAdmin,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRosterNotFound
		}
		return nil, fmt.Errorf("failed to scan roster entry: %w", err)
	}
	return entry, nil
}

func handleRosterError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		if pqErr.Constraint == "rosters_league_user_key" {
			return ErrRosterMemberConflict
		}
		return err
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed: rosters.league_id, rosters.user_id") {
		return ErrRosterMemberConflict
	}
	return err
}
