package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/store"
)

var (
	ErrMatchNotFound = errors.New("match not found")

	// ErrMatchStateConflict is returned by guarded updates when the row
	// exists but is no longer in the state the transition requires; the
	// guard in the UPDATE is what makes two concurrent accepts of the
	// same match impossible.
	ErrMatchStateConflict = errors.New("match is not in the required state")
)

type MatchRepository interface {
	Create(ctx context.Context, ex store.Executor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByLeague(ctx context.Context, leagueID int) ([]*models.Match, error)
	ListPendingByLeague(ctx context.Context, leagueID, limit int) ([]*models.Match, error)
	UpdateResult(ctx context.Context, ex store.Executor, match *models.Match) error
	MarkAccepted(ctx context.Context, ex store.Executor, id int, state models.MatchState, acceptedAt time.Time, ratingAppliedAt *time.Time) error
	ApplyConsolidation(ctx context.Context, ex store.Executor, match *models.Match) error
	Delete(ctx context.Context, ex store.Executor, id int) error
}

type sqlMatchRepository struct {
	store *store.Store
}

func NewMatchRepository(s *store.Store) MatchRepository {
	return &sqlMatchRepository{store: s}
}

const matchColumns = `id, league_id, player1_roster_id, player2_roster_id,
	       sets_won1, sets_won2, points1, points2, format, winner_roster_id,
	       rating1_before, rating1_after, rating2_before, rating2_after,
	       state, accepted_at, rating_applied_at, created_at`

func (r *sqlMatchRepository) Create(ctx context.Context, ex store.Executor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(league_id, player1_roster_id, player2_roster_id,
			 sets_won1, sets_won2, points1, points2, format, winner_roster_id,
			 rating1_before, rating1_after, rating2_before, rating2_after,
			 state, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := ex.InsertID(ctx, query,
		match.LeagueID,
		match.Player1RosterID,
		match.Player2RosterID,
		match.SetsWon1,
		match.SetsWon2,
		match.Points1,
		match.Points2,
		match.Format,
		match.WinnerRosterID,
		match.Rating1Before,
		match.Rating1After,
		match.Rating2Before,
		match.Rating2After,
		match.State,
		match.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	match.ID = id
	return nil
}

func (r *sqlMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`

	match, err := scanMatch(r.store.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *sqlMatchRepository) ListByLeague(ctx context.Context, leagueID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE league_id = ? ORDER BY created_at DESC, id DESC`
	return r.queryMatches(ctx, query, leagueID)
}

// ListPendingByLeague returns accepted-but-unapplied matches oldest
// acceptance first. Consolidation depends on this order: each match's
// delta is computed against ratings that already include every earlier
// match's effect.
func (r *sqlMatchRepository) ListPendingByLeague(ctx context.Context, leagueID, limit int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE league_id = ? AND state = ?
		ORDER BY accepted_at ASC, id ASC
		LIMIT ?`
	return r.queryMatches(ctx, query, leagueID, models.StateAcceptedPending, limit)
}

func (r *sqlMatchRepository) UpdateResult(ctx context.Context, ex store.Executor, match *models.Match) error {
	query := `
		UPDATE matches
		SET sets_won1 = ?, sets_won2 = ?, points1 = ?, points2 = ?,
		    format = ?, winner_roster_id = ?,
		    rating1_before = ?, rating1_after = ?, rating2_before = ?, rating2_after = ?
		WHERE id = ? AND state = ?`

	result, err := ex.ExecContext(ctx, query,
		match.SetsWon1,
		match.SetsWon2,
		match.Points1,
		match.Points2,
		match.Format,
		match.WinnerRosterID,
		match.Rating1Before,
		match.Rating1After,
		match.Rating2Before,
		match.Rating2After,
		match.ID,
		models.StateSubmitted,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d result: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *sqlMatchRepository) MarkAccepted(ctx context.Context, ex store.Executor, id int, state models.MatchState, acceptedAt time.Time, ratingAppliedAt *time.Time) error {
	query := `
		UPDATE matches
		SET state = ?, accepted_at = ?, rating_applied_at = ?
		WHERE id = ? AND state = ?`

	result, err := ex.ExecContext(ctx, query, state, acceptedAt, ratingAppliedAt, id, models.StateSubmitted)
	if err != nil {
		return fmt.Errorf("failed to mark match %d accepted: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *sqlMatchRepository) ApplyConsolidation(ctx context.Context, ex store.Executor, match *models.Match) error {
	query := `
		UPDATE matches
		SET rating1_before = ?, rating1_after = ?, rating2_before = ?, rating2_after = ?,
		    state = ?, rating_applied_at = ?
		WHERE id = ? AND state = ?`

	result, err := ex.ExecContext(ctx, query,
		match.Rating1Before,
		match.Rating1After,
		match.Rating2Before,
		match.Rating2After,
		models.StateAcceptedApplied,
		match.RatingAppliedAt,
		match.ID,
		models.StateAcceptedPending,
	)
	if err != nil {
		return fmt.Errorf("failed to apply consolidation for match %d: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchStateConflict)
}

func (r *sqlMatchRepository) Delete(ctx context.Context, ex store.Executor, id int) error {
	result, err := ex.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *sqlMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.store.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match := &models.Match{}
		if err := rows.Scan(
			&match.ID,
			&match.LeagueID,
			&match.Player1RosterID,
			&match.Player2RosterID,
			&match.SetsWon1,
			&match.SetsWon2,
			&match.Points1,
			&match.Points2,
			&match.Format,
			&match.WinnerRosterID,
			&match.Rating1Before,
			&match.Rating1After,
			&match.Rating2Before,
			&match.Rating2After,
			&match.State,
			&match.AcceptedAt,
			&match.RatingAppliedAt,
			&match.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func scanMatch(row *sql.Row) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID,
		&match.LeagueID,
		&match.Player1RosterID,
		&match.Player2RosterID,
		&match.SetsWon1,
		&match.SetsWon2,
		&match.Points1,
		&match.Points2,
		&match.Format,
		&match.WinnerRosterID,
		&match.Rating1Before,
		&match.Rating1After,
		&match.Rating2Before,
		&match.Rating2After,
		&match.State,
		&match.AcceptedAt,
		&match.RatingAppliedAt,
		&match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}
