package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres"
)

var ErrQuizNotFound = errors.New("quiz not found")

// QuizRepository provides read access to quiz definitions and content.
// The quiz service owns this schema.
type QuizRepository struct {
	db postgres.DBTX
}

// NewQuizRepository creates a new QuizRepository with the provided database pool.
func NewQuizRepository(db postgres.DBTX) *QuizRepository {
	return &QuizRepository{db: db}
}

// GetByID retrieves a quiz definition.
func (r *QuizRepository) GetByID(ctx context.Context, quizID int64) (*entities.Quiz, error) {
	query := `
		SELECT id, title, quiz_type, scheduled_for, is_published
		FROM quizzes
		WHERE id = $1
	`

	var quiz entities.Quiz
	var quizType string
	var scheduledFor *time.Time

	err := r.db.QueryRow(ctx, query, quizID).Scan(
		&quiz.ID,
		&quiz.Title,
		&quizType,
		&scheduledFor,
		&quiz.IsPublished,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	quiz.Type = entities.QuizType(quizType)
	quiz.ScheduledFor = scheduledFor
	return &quiz, nil
}

// GetQuestions retrieves the quiz's questions with their choices and
// explanations, in definition order.
func (r *QuizRepository) GetQuestions(ctx context.Context, quizID int64) ([]*entities.Question, error) {
	query := `
		SELECT id, quiz_id, item_id, prompt, points, explanation
		FROM questions
		WHERE quiz_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, quizID)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	var questions []*entities.Question
	byID := make(map[int64]*entities.Question)

	for rows.Next() {
		var q entities.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.ItemID, &q.Prompt, &q.Points, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, &q)
		byID[q.ID] = &q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	if len(questions) == 0 {
		return questions, nil
	}

	choiceQuery := `
		SELECT c.id, c.question_id, c.choice_text, c.is_correct
		FROM choices c
		JOIN questions q ON q.id = c.question_id
		WHERE q.quiz_id = $1
		ORDER BY c.id
	`

	choiceRows, err := r.db.Query(ctx, choiceQuery, quizID)
	if err != nil {
		return nil, fmt.Errorf("get choices: %w", err)
	}
	defer choiceRows.Close()

	for choiceRows.Next() {
		var c entities.Choice
		if err := choiceRows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan choice: %w", err)
		}
		if q, ok := byID[c.QuestionID]; ok {
			q.Choices = append(q.Choices, c)
		}
	}
	if err := choiceRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate choices: %w", err)
	}

	return questions, nil
}
