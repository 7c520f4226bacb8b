package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres/repository"
)

// ReconcileService runs the out-of-band nightly reconciliation: it
// recomputes every user's authoritative streak from their activity day
// keys and, when enabled, sweeps badge awards whose regress-capable
// criteria no longer hold. Both passes are idempotent.
type ReconcileService struct {
	attemptRepo     AttemptRepository
	progressionRepo ProgressionRepository
	badges          *BadgeService
	settings        SettingsProvider

	cronSpec string
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconcileService creates the reconciliation service.
func NewReconcileService(
	attemptRepo AttemptRepository,
	progressionRepo ProgressionRepository,
	badges *BadgeService,
	settings SettingsProvider,
	cronSpec string,
	loc *time.Location,
	logger *zap.Logger,
) *ReconcileService {
	return &ReconcileService{
		attemptRepo:     attemptRepo,
		progressionRepo: progressionRepo,
		badges:          badges,
		settings:        settings,
		cronSpec:        cronSpec,
		loc:             loc,
		logger:          logger,
		now:             time.Now,
	}
}

// Start begins the reconciliation scheduling loop and blocks until the
// context is cancelled.
func (s *ReconcileService) Start(ctx context.Context) {
	s.logger.Info("reconcile service started", zap.String("cron_spec", s.cronSpec))

	c := cron.New(cron.WithLocation(s.loc))

	_, err := c.AddFunc(s.cronSpec, func() {
		s.logger.Info("cron triggered: reconciling progression state")
		if err := s.Run(ctx); err != nil {
			s.logger.Error("reconciliation failed", zap.Error(err))
		}
	})
	if err != nil {
		s.logger.Error("failed to add cron job", zap.Error(err))
		return
	}

	c.Start()

	<-ctx.Done()

	c.Stop()
	s.logger.Info("reconcile service stopped")
}

// Run reconciles every active user once.
func (s *ReconcileService) Run(ctx context.Context) error {
	cfg, err := s.settings.EngineSettings(ctx)
	if err != nil {
		return fmt.Errorf("load engine settings: %w", err)
	}

	userIDs, err := s.progressionRepo.ActiveUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	today := entities.DayKey(s.now(), s.loc)
	adjusted, revoked := 0, 0

	for _, userID := range userIDs {
		changed, swept, err := s.reconcileUser(ctx, userID, today, cfg.BadgeRevocationSweep)
		if err != nil {
			s.logger.Error("failed to reconcile user",
				zap.Int64("user_id", userID),
				zap.Error(err))
			continue
		}
		if changed {
			adjusted++
		}
		revoked += swept
	}

	s.logger.Info("reconciliation finished",
		zap.Int("users", len(userIDs)),
		zap.Int("streaks_adjusted", adjusted),
		zap.Int("badges_revoked", revoked))

	return nil
}

func (s *ReconcileService) reconcileUser(ctx context.Context, userID int64, today string, sweep bool) (bool, int, error) {
	prog, err := s.progressionRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProgressionNotFound) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("get progression state: %w", err)
	}

	days, err := s.attemptRepo.ActivityDayKeys(ctx, userID)
	if err != nil {
		return false, 0, fmt.Errorf("get activity days: %w", err)
	}

	changed := false
	if streak := entities.ReconcileStreak(days, today); streak != prog.StreakCount {
		s.logger.Info("streak corrected",
			zap.Int64("user_id", userID),
			zap.Int("stored", prog.StreakCount),
			zap.Int("recomputed", streak))

		prog.StreakCount = streak
		if streak > prog.BestStreak {
			prog.BestStreak = streak
		}
		prog.UpdatedAt = s.now()

		if err := s.progressionRepo.Upsert(ctx, prog); err != nil {
			return false, 0, fmt.Errorf("persist progression state: %w", err)
		}
		changed = true
	}

	if !sweep {
		return changed, 0, nil
	}

	lessons, err := s.attemptRepo.CountLessonCompletions(ctx, userID)
	if err != nil {
		return changed, 0, fmt.Errorf("count lesson completions: %w", err)
	}
	quizzes, err := s.attemptRepo.CountQuizCompletions(ctx, userID)
	if err != nil {
		return changed, 0, fmt.Errorf("count quiz completions: %w", err)
	}

	revoked, err := s.badges.RevokeLapsed(ctx, userID, entities.StatsSnapshot{
		StreakCount:      prog.StreakCount,
		TotalXP:          prog.TotalXP,
		CurrentLevel:     prog.CurrentLevel,
		LessonsCompleted: lessons,
		QuizzesCompleted: quizzes,
	})
	if err != nil {
		return changed, revoked, err
	}

	return changed, revoked, nil
}
