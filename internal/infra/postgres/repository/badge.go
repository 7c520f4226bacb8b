package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres"
)

// BadgeRepository provides access to badge definitions and awards in the database.
type BadgeRepository struct {
	db postgres.DBTX
}

// NewBadgeRepository creates a new BadgeRepository with the provided database pool.
func NewBadgeRepository(db postgres.DBTX) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// ActiveDefinitions returns all active badge definitions. A criteria
// payload that fails to decode yields a definition with a zero criteria,
// which the evaluator rejects per badge without failing the rest.
func (r *BadgeRepository) ActiveDefinitions(ctx context.Context) ([]*entities.BadgeDefinition, error) {
	query := `
		SELECT id, code, title, criteria, is_active
		FROM badge_definitions
		WHERE is_active = TRUE
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list badge definitions: %w", err)
	}
	defer rows.Close()

	var defs []*entities.BadgeDefinition
	for rows.Next() {
		var def entities.BadgeDefinition
		var payload []byte

		if err := rows.Scan(&def.ID, &def.Code, &def.Title, &payload, &def.IsActive); err != nil {
			return nil, fmt.Errorf("scan badge definition: %w", err)
		}

		// Decode failure leaves def.Criteria zero-valued on purpose.
		_ = json.Unmarshal(payload, &def.Criteria)

		defs = append(defs, &def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badge definitions: %w", err)
	}

	return defs, nil
}

// OwnedBadgeIDs returns the badge IDs the user has already earned.
func (r *BadgeRepository) OwnedBadgeIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT badge_id FROM badge_awards WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned badges: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan badge id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owned badges: %w", err)
	}

	return ids, nil
}

// Award inserts a badge award, reporting whether a row was created.
// A pair that already exists is left untouched.
func (r *BadgeRepository) Award(ctx context.Context, userID, badgeID int64, earnedAt time.Time) (bool, error) {
	query := `
		INSERT INTO badge_awards (user_id, badge_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, userID, badgeID, earnedAt)
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Revoke deletes a badge award. Reserved for the administrative sweep.
func (r *BadgeRepository) Revoke(ctx context.Context, userID, badgeID int64) error {
	query := `DELETE FROM badge_awards WHERE user_id = $1 AND badge_id = $2`

	if _, err := r.db.Exec(ctx, query, userID, badgeID); err != nil {
		return fmt.Errorf("revoke badge: %w", err)
	}

	return nil
}
