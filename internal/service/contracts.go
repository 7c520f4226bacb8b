package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres"
)

// Transactor runs a function inside one database transaction, rolling
// back on error.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

// TxBinder rebinds the settlement's write-side repositories onto a
// transaction, so every write of one settlement commits or rolls back
// together.
type TxBinder func(tx postgres.DBTX) (AttemptRepository, ItemStateRepository, ProgressionRepository)

// QuizRepository reads quiz definitions and their content. The quiz
// service owns the schema; the engine only reads it.
type QuizRepository interface {
	GetByID(ctx context.Context, quizID int64) (*entities.Quiz, error)
	GetQuestions(ctx context.Context, quizID int64) ([]*entities.Question, error)
}

// AttemptRepository manages attempt lifecycle records and the completion
// aggregates badge criteria are counted from.
type AttemptRepository interface {
	Create(ctx context.Context, a *entities.Attempt) (int64, error)
	Complete(ctx context.Context, a *entities.Attempt) error

	// HasPaidCompletion reports whether any completed attempt at the quiz
	// already earned XP.
	HasPaidCompletion(ctx context.Context, userID, quizID int64) (bool, error)

	// ActivityDayKeys returns the distinct civil day keys on which the user
	// completed at least one attempt.
	ActivityDayKeys(ctx context.Context, userID int64) ([]string, error)

	// CountLessonCompletions counts distinct lesson quizzes the user completed.
	CountLessonCompletions(ctx context.Context, userID int64) (int, error)

	// CountQuizCompletions counts distinct qualifying quiz completions:
	// deduplicated by quiz, with dated quizzes counted only when completed
	// on their own scheduled calendar day.
	CountQuizCompletions(ctx context.Context, userID int64) (int, error)
}

// ItemStateRepository persists per-item review schedules.
type ItemStateRepository interface {
	Get(ctx context.Context, userID, itemID int64) (*entities.LearnerItemState, error)
	Upsert(ctx context.Context, st *entities.LearnerItemState) error
}

// ProgressionRepository persists per-user progression state.
type ProgressionRepository interface {
	Get(ctx context.Context, userID int64) (*entities.UserProgressionState, error)
	Upsert(ctx context.Context, st *entities.UserProgressionState) error
	ActiveUserIDs(ctx context.Context) ([]int64, error)
}

// BadgeRepository provides badge reference data and award persistence.
type BadgeRepository interface {
	ActiveDefinitions(ctx context.Context) ([]*entities.BadgeDefinition, error)
	OwnedBadgeIDs(ctx context.Context, userID int64) ([]int64, error)

	// Award inserts the (user, badge) pair, reporting whether a row was
	// actually created. Existing awards are left untouched.
	Award(ctx context.Context, userID, badgeID int64, earnedAt time.Time) (bool, error)

	// Revoke removes an award. Only the administrative sweep calls this.
	Revoke(ctx context.Context, userID, badgeID int64) error
}

// SettingsProvider supplies the global engine settings, consulted
// read-only once per settlement.
type SettingsProvider interface {
	EngineSettings(ctx context.Context) (*entities.EngineSettings, error)
}

// BadgeNotifier is told about newly awarded badges so the user can be
// congratulated. Delivery is someone else's job; failures never fail a
// settlement.
type BadgeNotifier interface {
	BadgeAwarded(ctx context.Context, userID int64, badges []entities.AwardedBadge) error
}
