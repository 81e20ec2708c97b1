package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/store"
)

var ErrLeagueNotFound = errors.New("league not found")

type LeagueRepository interface {
	Create(ctx context.Context, ex store.Executor, league *models.League) error
	GetByID(ctx context.Context, id int) (*models.League, error)
	List(ctx context.Context) ([]*models.League, error)
}

type sqlLeagueRepository struct {
	store *store.Store
}

func NewLeagueRepository(s *store.Store) LeagueRepository {
	return &sqlLeagueRepository{store: s}
}

func (r *sqlLeagueRepository) Create(ctx context.Context, ex store.Executor, league *models.League) error {
	query := `
		INSERT INTO leagues (name, rating_update_mode, creator_id, created_at)
		VALUES (?, ?, ?, ?)`

	id, err := ex.InsertID(ctx, query,
		league.Name,
		league.RatingUpdateMode,
		league.CreatorID,
		league.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create league: %w", err)
	}
	league.ID = id
	return nil
}

func (r *sqlLeagueRepository) GetByID(ctx context.Context, id int) (*models.League, error) {
	query := `
		SELECT id, name, rating_update_mode, creator_id, created_at
		FROM leagues
		WHERE id = ?`

	league := &models.League{}
	err := r.store.QueryRowContext(ctx, query, id).Scan(
		&league.ID,
		&league.Name,
		&league.RatingUpdateMode,
		&league.CreatorID,
		&league.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, fmt.Errorf("failed to scan league %d: %w", id, err)
	}
	return league, nil
}

func (r *sqlLeagueRepository) List(ctx context.Context) ([]*models.League, error) {
	query := `
		SELECT id, name, rating_update_mode, creator_id, created_at
		FROM leagues
		ORDER BY id`

	rows, err := r.store.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues: %w", err)
	}
	defer rows.Close()

	leagues := make([]*models.League, 0)
	for rows.Next() {
		league := &models.League{}
		if err := rows.Scan(
			&league.ID,
			&league.Name,
			&league.RatingUpdateMode,
			&league.CreatorID,
			&league.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan league row: %w", err)
		}
		leagues = append(leagues, league)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during league rows iteration: %w", err)
	}
	return leagues, nil
}
