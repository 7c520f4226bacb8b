package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres"
)

var ErrAttemptNotFound = errors.New("attempt not found")

// AttemptRepository provides access to quiz attempt records in the
// database. The configured timezone is used wherever a completion
// timestamp must be folded onto a civil calendar day.
type AttemptRepository struct {
	db       postgres.DBTX
	timezone string // IANA identifier passed to AT TIME ZONE
}

// NewAttemptRepository creates a new AttemptRepository with the provided
// database pool and civil timezone.
func NewAttemptRepository(db postgres.DBTX, timezone string) *AttemptRepository {
	return &AttemptRepository{db: db, timezone: timezone}
}

// Create inserts a new active attempt and returns its ID.
func (r *AttemptRepository) Create(ctx context.Context, a *entities.Attempt) (int64, error) {
	query := `
		INSERT INTO attempts (ref, user_id, quiz_id, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, a.Ref, a.UserID, a.QuizID, string(a.Status), a.StartedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create attempt: %w", err)
	}

	return id, nil
}

// Complete writes the completion fields of an attempt.
func (r *AttemptRepository) Complete(ctx context.Context, a *entities.Attempt) error {
	query := `
		UPDATE attempts
		SET status = $2, score = $3, xp_earned = $4, completed_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, a.ID, string(a.Status), a.Score, a.XPEarned, a.CompletedAt)
	if err != nil {
		return fmt.Errorf("complete attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}

	return nil
}

// HasPaidCompletion reports whether any completed attempt at the quiz
// already earned XP.
func (r *AttemptRepository) HasPaidCompletion(ctx context.Context, userID, quizID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM attempts
			WHERE user_id = $1 AND quiz_id = $2
			  AND status = 'completed' AND xp_earned > 0
		)
	`

	var paid bool
	if err := r.db.QueryRow(ctx, query, userID, quizID).Scan(&paid); err != nil {
		return false, fmt.Errorf("check paid completion: %w", err)
	}

	return paid, nil
}

// ActivityDayKeys returns the distinct civil day keys on which the user
// completed at least one attempt.
func (r *AttemptRepository) ActivityDayKeys(ctx context.Context, userID int64) ([]string, error) {
	query := `
		SELECT DISTINCT to_char(completed_at AT TIME ZONE $2, 'YYYY-MM-DD')
		FROM attempts
		WHERE user_id = $1 AND status = 'completed'
		ORDER BY 1
	`

	rows, err := r.db.Query(ctx, query, userID, r.timezone)
	if err != nil {
		return nil, fmt.Errorf("get activity days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan activity day: %w", err)
		}
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity days: %w", err)
	}

	return days, nil
}

// CountLessonCompletions counts distinct lesson quizzes the user completed.
func (r *AttemptRepository) CountLessonCompletions(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(DISTINCT a.quiz_id)
		FROM attempts a
		JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.user_id = $1 AND a.status = 'completed'
		  AND q.quiz_type = 'lesson'
	`

	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count lesson completions: %w", err)
	}

	return count, nil
}

// CountQuizCompletions counts distinct qualifying quiz completions.
// Completions are deduplicated by quiz identity, and a dated quiz counts
// only when it was completed on its own scheduled calendar day. A stale
// instance of a daily quiz never feeds a badge counter.
func (r *AttemptRepository) CountQuizCompletions(ctx context.Context, userID int64) (int, error) {
	query := `
		SELECT COUNT(DISTINCT a.quiz_id)
		FROM attempts a
		JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.user_id = $1 AND a.status = 'completed'
		  AND (
		      q.quiz_type <> 'daily'
		      OR q.scheduled_for IS NULL
		      OR to_char(a.completed_at AT TIME ZONE $2, 'YYYY-MM-DD')
		         = to_char(q.scheduled_for, 'YYYY-MM-DD')
		  )
	`

	var count int
	if err := r.db.QueryRow(ctx, query, userID, r.timezone).Scan(&count); err != nil {
		return 0, fmt.Errorf("count quiz completions: %w", err)
	}

	return count, nil
}
