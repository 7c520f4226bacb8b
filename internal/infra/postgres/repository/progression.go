package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres"
)

var ErrProgressionNotFound = errors.New("progression state not found")

// ProgressionRepository provides access to per-user progression state in the database.
type ProgressionRepository struct {
	db postgres.DBTX
}

// NewProgressionRepository creates a new ProgressionRepository with the provided database pool.
func NewProgressionRepository(db postgres.DBTX) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

// Get retrieves the progression state for a user.
func (r *ProgressionRepository) Get(ctx context.Context, userID int64) (*entities.UserProgressionState, error) {
	query := `
		SELECT user_id, streak_count, best_streak, last_active_day,
		       streak_freeze_count, total_xp, current_level, updated_at
		FROM user_progression
		WHERE user_id = $1
	`

	var st entities.UserProgressionState
	var level string

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&st.UserID,
		&st.StreakCount,
		&st.BestStreak,
		&st.LastActiveDay,
		&st.StreakFreezeCount,
		&st.TotalXP,
		&level,
		&st.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressionNotFound
		}
		return nil, fmt.Errorf("get progression state: %w", err)
	}

	st.CurrentLevel = entities.Level(level)
	return &st, nil
}

// Upsert creates or updates a user's progression state.
func (r *ProgressionRepository) Upsert(ctx context.Context, st *entities.UserProgressionState) error {
	query := `
		INSERT INTO user_progression (
			user_id, streak_count, best_streak, last_active_day,
			streak_freeze_count, total_xp, current_level, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			streak_count = EXCLUDED.streak_count,
			best_streak = EXCLUDED.best_streak,
			last_active_day = EXCLUDED.last_active_day,
			streak_freeze_count = EXCLUDED.streak_freeze_count,
			total_xp = EXCLUDED.total_xp,
			current_level = EXCLUDED.current_level,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(
		ctx,
		query,
		st.UserID,
		st.StreakCount,
		st.BestStreak,
		st.LastActiveDay,
		st.StreakFreezeCount,
		st.TotalXP,
		string(st.CurrentLevel),
		st.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("upsert progression state: %w", err)
	}

	return nil
}

// ActiveUserIDs returns every user with a progression record.
func (r *ProgressionRepository) ActiveUserIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT user_id FROM user_progression ORDER BY user_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return ids, nil
}
