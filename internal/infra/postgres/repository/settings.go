package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres"
)

// SettingsRepository supplies the global engine settings from the
// single-row settings table, falling back to defaults when the row has
// not been created yet.
type SettingsRepository struct {
	db       postgres.DBTX
	defaults entities.EngineSettings
}

// NewSettingsRepository creates a new SettingsRepository with the provided
// database pool and the configured fallback defaults.
func NewSettingsRepository(db postgres.DBTX, defaults entities.EngineSettings) *SettingsRepository {
	return &SettingsRepository{db: db, defaults: defaults}
}

// EngineSettings retrieves the global settings row.
func (r *SettingsRepository) EngineSettings(ctx context.Context) (*entities.EngineSettings, error) {
	query := `
		SELECT xp_multiplier, streak_freeze_enabled, badge_revocation_sweep
		FROM engine_settings
		WHERE id = 1
	`

	var s entities.EngineSettings
	err := r.db.QueryRow(ctx, query).Scan(
		&s.XPMultiplier,
		&s.StreakFreezeEnabled,
		&s.BadgeRevocationSweep,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			defaults := r.defaults
			return &defaults, nil
		}
		return nil, fmt.Errorf("get engine settings: %w", err)
	}

	return &s, nil
}
