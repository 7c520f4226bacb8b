package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
)

func newReconcileFixture(attempts *fakeAttemptRepo, progress *fakeProgressionRepo, badges *fakeBadgeRepo, cfg entities.EngineSettings) *ReconcileService {
	svc := NewReconcileService(
		attempts,
		progress,
		NewBadgeService(badges, zap.NewNop()),
		&fakeSettings{cfg: cfg},
		"0 3 * * *",
		time.UTC,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return time.Date(2025, 3, 5, 3, 0, 0, 0, time.UTC) }
	return svc
}

func TestReconcileService_Run_CorrectsDriftedStreak(t *testing.T) {
	ctx := context.Background()

	attempts := newFakeAttemptRepo()
	attempts.activityDays = []string{"2025-03-02", "2025-03-03", "2025-03-04"}

	progress := newFakeProgressionRepo()
	require.NoError(t, progress.Upsert(ctx, &entities.UserProgressionState{
		UserID:       testUserID,
		StreakCount:  9, // drifted; activity history supports only 3
		BestStreak:   9,
		CurrentLevel: entities.LevelA1,
	}))

	svc := newReconcileFixture(attempts, progress, newFakeBadgeRepo(), *entities.DefaultEngineSettings())
	require.NoError(t, svc.Run(ctx))

	prog, err := progress.Get(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 3, prog.StreakCount, "run ending yesterday is static, not broken")
	assert.Equal(t, 9, prog.BestStreak, "best streak is a high-water mark")
}

func TestReconcileService_Run_MatchingStreakUntouched(t *testing.T) {
	ctx := context.Background()

	attempts := newFakeAttemptRepo()
	attempts.activityDays = []string{"2025-03-04", "2025-03-05"}

	progress := newFakeProgressionRepo()
	stored := &entities.UserProgressionState{
		UserID:       testUserID,
		StreakCount:  2,
		BestStreak:   4,
		CurrentLevel: entities.LevelA1,
		UpdatedAt:    time.Date(2025, 3, 5, 1, 0, 0, 0, time.UTC),
	}
	require.NoError(t, progress.Upsert(ctx, stored))

	svc := newReconcileFixture(attempts, progress, newFakeBadgeRepo(), *entities.DefaultEngineSettings())
	require.NoError(t, svc.Run(ctx))

	prog, err := progress.Get(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, stored.UpdatedAt, prog.UpdatedAt, "no write when the streak already matches")
}

func TestReconcileService_Run_SweepRevokesLapsedBadges(t *testing.T) {
	ctx := context.Background()

	attempts := newFakeAttemptRepo() // no recent activity at all

	progress := newFakeProgressionRepo()
	require.NoError(t, progress.Upsert(ctx, &entities.UserProgressionState{
		UserID:       testUserID,
		StreakCount:  7,
		BestStreak:   7,
		CurrentLevel: entities.LevelA1,
	}))

	badges := newFakeBadgeRepo(streakBadge(1, "streak_5", 5))
	_, err := badges.Award(ctx, testUserID, 1, time.Now())
	require.NoError(t, err)

	cfg := *entities.DefaultEngineSettings()
	cfg.BadgeRevocationSweep = true

	svc := newReconcileFixture(attempts, progress, badges, cfg)
	require.NoError(t, svc.Run(ctx))

	prog, err := progress.Get(ctx, testUserID)
	require.NoError(t, err)
	assert.Zero(t, prog.StreakCount)
	assert.Empty(t, badges.awards, "lapsed streak badge revoked by the sweep")
}

func TestReconcileService_Run_SweepDisabledKeepsBadges(t *testing.T) {
	ctx := context.Background()

	attempts := newFakeAttemptRepo()

	progress := newFakeProgressionRepo()
	require.NoError(t, progress.Upsert(ctx, &entities.UserProgressionState{
		UserID:       testUserID,
		StreakCount:  7,
		BestStreak:   7,
		CurrentLevel: entities.LevelA1,
	}))

	badges := newFakeBadgeRepo(streakBadge(1, "streak_5", 5))
	_, err := badges.Award(ctx, testUserID, 1, time.Now())
	require.NoError(t, err)

	svc := newReconcileFixture(attempts, progress, badges, *entities.DefaultEngineSettings())
	require.NoError(t, svc.Run(ctx))

	assert.Len(t, badges.awards, 1, "sweep disabled leaves awards in place")
}
