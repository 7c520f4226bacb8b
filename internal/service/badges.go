package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
)

// BadgeService evaluates declarative badge criteria against stats
// snapshots and records awards exactly once.
type BadgeService struct {
	badgeRepo BadgeRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewBadgeService creates a new badge service.
func NewBadgeService(badgeRepo BadgeRepository, logger *zap.Logger) *BadgeService {
	return &BadgeService{badgeRepo: badgeRepo, logger: logger, now: time.Now}
}

// Evaluate awards every active, not-yet-owned badge whose criteria the
// snapshot satisfies and returns the newly awarded badges. Already-owned
// badges are skipped outright: never re-inserted, never re-validated for
// regression. A malformed criteria payload disables only that badge; the
// rest of the evaluation proceeds.
func (s *BadgeService) Evaluate(ctx context.Context, userID int64, snap entities.StatsSnapshot) ([]entities.AwardedBadge, error) {
	defs, err := s.badgeRepo.ActiveDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badge definitions: %w", err)
	}

	ownedIDs, err := s.badgeRepo.OwnedBadgeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list owned badges: %w", err)
	}
	owned := make(map[int64]struct{}, len(ownedIDs))
	for _, id := range ownedIDs {
		owned[id] = struct{}{}
	}

	var awarded []entities.AwardedBadge
	now := s.now().UTC()

	for _, def := range defs {
		if _, ok := owned[def.ID]; ok {
			continue
		}

		// A payload that decodes but fails validation (zero threshold,
		// unknown level) is not earnable, never trivially met.
		if err := def.Criteria.Validate(); err != nil {
			s.logger.Error("invalid badge criteria",
				zap.String("badge_code", def.Code),
				zap.Error(err))
			continue
		}

		met, err := def.Criteria.Met(snap)
		if err != nil {
			s.logger.Error("badge criteria evaluation failed",
				zap.String("badge_code", def.Code),
				zap.Error(err))
			continue
		}
		if !met {
			continue
		}

		// ON CONFLICT DO NOTHING underneath, so a retried settlement
		// cannot double-award.
		inserted, err := s.badgeRepo.Award(ctx, userID, def.ID, now)
		if err != nil {
			return awarded, fmt.Errorf("award badge %s: %w", def.Code, err)
		}
		if inserted {
			awarded = append(awarded, entities.AwardedBadge{
				BadgeID: def.ID,
				Code:    def.Code,
				Title:   def.Title,
			})
		}
	}

	return awarded, nil
}

// RevokeLapsed is the administrative counterpart to Evaluate: it
// re-validates regress-capable criteria against current values and
// deletes awards that no longer qualify. It is the only path that removes
// a badge award. Returns the number of revoked awards.
func (s *BadgeService) RevokeLapsed(ctx context.Context, userID int64, snap entities.StatsSnapshot) (int, error) {
	defs, err := s.badgeRepo.ActiveDefinitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list badge definitions: %w", err)
	}

	ownedIDs, err := s.badgeRepo.OwnedBadgeIDs(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list owned badges: %w", err)
	}
	owned := make(map[int64]struct{}, len(ownedIDs))
	for _, id := range ownedIDs {
		owned[id] = struct{}{}
	}

	revoked := 0
	for _, def := range defs {
		if err := def.Criteria.Validate(); err != nil {
			s.logger.Error("invalid badge criteria",
				zap.String("badge_code", def.Code),
				zap.Error(err))
			continue
		}
		if !def.Criteria.Regressable() {
			continue
		}
		if _, ok := owned[def.ID]; !ok {
			continue
		}

		met, err := def.Criteria.Met(snap)
		if err != nil {
			s.logger.Error("badge criteria evaluation failed during sweep",
				zap.String("badge_code", def.Code),
				zap.Error(err))
			continue
		}
		if met {
			continue
		}

		if err := s.badgeRepo.Revoke(ctx, userID, def.ID); err != nil {
			return revoked, fmt.Errorf("revoke badge %s: %w", def.Code, err)
		}
		revoked++

		s.logger.Info("badge revoked",
			zap.Int64("user_id", userID),
			zap.String("badge_code", def.Code))
	}

	return revoked, nil
}
