package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/store"
)

type RatingHistoryRepository interface {
	Create(ctx context.Context, ex store.Executor, entry *models.RatingHistoryEntry) error
	ListByRoster(ctx context.Context, rosterID int) ([]*models.RatingHistoryEntry, error)
}

type sqlRatingHistoryRepository struct {
	store *store.Store
}

func NewRatingHistoryRepository(s *store.Store) RatingHistoryRepository {
	return &sqlRatingHistoryRepository{store: s}
}

func (r *sqlRatingHistoryRepository) Create(ctx context.Context, ex store.Executor, entry *models.RatingHistoryEntry) error {
	query := `
		INSERT INTO rating_history
			(roster_id, league_id, match_id, rating_before, rating_after, delta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := ex.InsertID(ctx, query,
		entry.RosterID,
		entry.LeagueID,
		entry.MatchID,
		entry.RatingBefore,
		entry.RatingAfter,
		entry.Delta,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rating history entry: %w", err)
	}
	entry.ID = id
	return nil
}

func (r *sqlRatingHistoryRepository) ListByRoster(ctx context.Context, rosterID int) ([]*models.RatingHistoryEntry, error) {
	query := `
		SELECT id, roster_id, league_id, match_id, rating_before, rating_after, delta, created_at
		FROM rating_history
		WHERE roster_id = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.store.QueryContext(ctx, query, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating history for roster %d: %w", rosterID, err)
	}
	defer rows.Close()

	entries := make([]*models.RatingHistoryEntry, 0)
	for rows.Next() {
		entry := &models.RatingHistoryEntry{}
		if err := rows.Scan(
			&entry.ID,
			&entry.RosterID,
			&entry.LeagueID,
			&entry.MatchID,
			&entry.RatingBefore,
			&entry.RatingAfter,
			&entry.Delta,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rating history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rating history rows iteration: %w", err)
	}
	return entries, nil
}
