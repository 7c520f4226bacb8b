package entities

import (
	"fmt"
	"time"
)

// CriteriaKind identifies one of the closed set of badge criteria variants.
type CriteriaKind string

const (
	CriteriaStreak           CriteriaKind = "streak"            // streak of at least Threshold days
	CriteriaTotalXP          CriteriaKind = "total_xp"          // accumulated XP of at least Threshold
	CriteriaLevelReached     CriteriaKind = "level_reached"     // proficiency level at or above Level
	CriteriaLessonCompletion CriteriaKind = "lesson_completion" // at least Threshold distinct lesson quizzes completed
	CriteriaTotalQuizzes     CriteriaKind = "total_quizzes"     // at least Threshold distinct qualifying quizzes completed
)

// BadgeCriteria is the tagged criteria variant stored on a badge
// definition. Exactly one interpretation applies depending on Kind.
type BadgeCriteria struct {
	Kind      CriteriaKind `json:"kind"`
	Threshold int          `json:"threshold,omitempty"`
	Level     Level        `json:"level,omitempty"`
}

// Validate checks that the criteria payload is well formed.
func (c BadgeCriteria) Validate() error {
	switch c.Kind {
	case CriteriaStreak, CriteriaTotalXP, CriteriaLessonCompletion, CriteriaTotalQuizzes:
		if c.Threshold <= 0 {
			return fmt.Errorf("criteria %q: threshold must be positive, got %d", c.Kind, c.Threshold)
		}
		return nil
	case CriteriaLevelReached:
		if LevelRank(c.Level) < 0 {
			return fmt.Errorf("criteria %q: unknown level %q", c.Kind, c.Level)
		}
		return nil
	default:
		return fmt.Errorf("unknown criteria kind %q", c.Kind)
	}
}

// Met reports whether the criteria holds for the given stats snapshot.
// The switch over Kind is exhaustive; an unknown kind is an error so the
// evaluator can skip the badge without failing the settlement.
func (c BadgeCriteria) Met(s StatsSnapshot) (bool, error) {
	switch c.Kind {
	case CriteriaStreak:
		return s.StreakCount >= c.Threshold, nil
	case CriteriaTotalXP:
		return s.TotalXP >= c.Threshold, nil
	case CriteriaLevelReached:
		want := LevelRank(c.Level)
		if want < 0 {
			return false, fmt.Errorf("unknown level %q", c.Level)
		}
		return LevelRank(s.CurrentLevel) >= want, nil
	case CriteriaLessonCompletion:
		return s.LessonsCompleted >= c.Threshold, nil
	case CriteriaTotalQuizzes:
		return s.QuizzesCompleted >= c.Threshold, nil
	default:
		return false, fmt.Errorf("unknown criteria kind %q", c.Kind)
	}
}

// Regressable reports whether the underlying value can later drop below
// the threshold. Only such criteria are re-validated by the
// administrative revocation sweep; monotonic counters never regress.
func (c BadgeCriteria) Regressable() bool {
	return c.Kind == CriteriaStreak || c.Kind == CriteriaLevelReached
}

// BadgeDefinition is immutable reference data describing one badge.
type BadgeDefinition struct {
	ID       int64
	Code     string
	Title    string
	Criteria BadgeCriteria
	IsActive bool
}

// BadgeAward records that a user earned a badge. Append-only: created at
// most once per (user, badge) pair and removed only by the administrative
// revocation sweep.
type BadgeAward struct {
	UserID   int64
	BadgeID  int64
	EarnedAt time.Time
}

// AwardedBadge is the reveal-facing description of a newly earned badge.
type AwardedBadge struct {
	BadgeID int64
	Code    string
	Title   string
}

// StatsSnapshot is an immutable snapshot of the counters badge criteria
// are evaluated against. It is built fresh after a settlement persists,
// so evaluation always sees the numbers the settlement produced.
type StatsSnapshot struct {
	StreakCount      int
	TotalXP          int
	CurrentLevel     Level
	LessonsCompleted int
	QuizzesCompleted int
}
