package repositories

import (
	"context"
	"fmt"

	"github.com/Dosada05/league-rating-system/models"
	"github.com/Dosada05/league-rating-system/store"
)

type SetScoreRepository interface {
	ReplaceForMatch(ctx context.Context, ex store.Executor, matchID int, sets []models.SetScore) error
	ListByMatch(ctx context.Context, matchID int) ([]models.SetScore, error)
	DeleteForMatch(ctx context.Context, ex store.Executor, matchID int) error
}

type sqlSetScoreRepository struct {
	store *store.Store
}

func NewSetScoreRepository(s *store.Store) SetScoreRepository {
	return &sqlSetScoreRepository{store: s}
}

func (r *sqlSetScoreRepository) ReplaceForMatch(ctx context.Context, ex store.Executor, matchID int, sets []models.SetScore) error {
	if err := r.DeleteForMatch(ctx, ex, matchID); err != nil {
		return err
	}
	for i := range sets {
		sets[i].MatchID = matchID
		id, err := ex.InsertID(ctx,
			`INSERT INTO set_scores (match_id, set_number, points1, points2) VALUES (?, ?, ?, ?)`,
			matchID, sets[i].SetNumber, sets[i].Points1, sets[i].Points2,
		)
		if err != nil {
			return fmt.Errorf("failed to insert set score %d for match %d: %w", sets[i].SetNumber, matchID, err)
		}
		sets[i].ID = id
	}
	return nil
}

func (r *sqlSetScoreRepository) ListByMatch(ctx context.Context, matchID int) ([]models.SetScore, error) {
	query := `
		SELECT id, match_id, set_number, points1, points2
		FROM set_scores
		WHERE match_id = ?
		ORDER BY set_number`

	rows, err := r.store.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query set scores for match %d: %w", matchID, err)
	}
	defer rows.Close()

	sets := make([]models.SetScore, 0)
	for rows.Next() {
		var set models.SetScore
		if err := rows.Scan(&set.ID, &set.MatchID, &set.SetNumber, &set.Points1, &set.Points2); err != nil {
			return nil, fmt.Errorf("failed to scan set score row: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during set score rows iteration: %w", err)
	}
	return sets, nil
}

func (r *sqlSetScoreRepository) DeleteForMatch(ctx context.Context, ex store.Executor, matchID int) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM set_scores WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("failed to delete set scores for match %d: %w", matchID, err)
	}
	return nil
}
