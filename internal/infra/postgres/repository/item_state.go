package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres"
)

var ErrItemStateNotFound = errors.New("item state not found")

// ItemStateRepository provides access to per-item review schedules in the database.
type ItemStateRepository struct {
	db postgres.DBTX
}

// NewItemStateRepository creates a new ItemStateRepository with the provided database pool.
func NewItemStateRepository(db postgres.DBTX) *ItemStateRepository {
	return &ItemStateRepository{db: db}
}

// Get retrieves the review state for one (user, item) pair.
func (r *ItemStateRepository) Get(ctx context.Context, userID, itemID int64) (*entities.LearnerItemState, error) {
	query := `
		SELECT user_id, item_id, stage, interval_days, repetition_count,
		       easiness, due_at, last_reviewed_at
		FROM item_states
		WHERE user_id = $1 AND item_id = $2
	`

	var st entities.LearnerItemState
	err := r.db.QueryRow(ctx, query, userID, itemID).Scan(
		&st.UserID,
		&st.ItemID,
		&st.Stage,
		&st.IntervalDays,
		&st.RepetitionCount,
		&st.Easiness,
		&st.DueAt,
		&st.LastReviewedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemStateNotFound
		}
		return nil, fmt.Errorf("get item state: %w", err)
	}

	return &st, nil
}

// Upsert creates or updates a review state record.
func (r *ItemStateRepository) Upsert(ctx context.Context, st *entities.LearnerItemState) error {
	query := `
		INSERT INTO item_states (
			user_id, item_id, stage, interval_days, repetition_count,
			easiness, due_at, last_reviewed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			stage = EXCLUDED.stage,
			interval_days = EXCLUDED.interval_days,
			repetition_count = EXCLUDED.repetition_count,
			easiness = EXCLUDED.easiness,
			due_at = EXCLUDED.due_at,
			last_reviewed_at = EXCLUDED.last_reviewed_at
	`

	_, err := r.db.Exec(
		ctx,
		query,
		st.UserID,
		st.ItemID,
		st.Stage,
		st.IntervalDays,
		st.RepetitionCount,
		st.Easiness,
		st.DueAt,
		st.LastReviewedAt,
	)

	if err != nil {
		return fmt.Errorf("upsert item state: %w", err)
	}

	return nil
}
