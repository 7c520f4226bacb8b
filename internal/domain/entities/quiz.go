package entities

import (
	"time"

	"github.com/google/uuid"
)

// QuizType classifies how a quiz is offered to learners.
type QuizType string

const (
	QuizLesson   QuizType = "lesson"   // quiz attached to a course lesson
	QuizDaily    QuizType = "daily"    // dated quiz scheduled for one calendar day
	QuizPractice QuizType = "practice" // free practice, repeatable
)

// Quiz is the engine's read view of a quiz definition. The quiz service
// owns the schema; the engine reads it and writes completion fields only.
type Quiz struct {
	ID           int64
	Title        string
	Type         QuizType
	ScheduledFor *time.Time // calendar day a dated quiz belongs to, nil otherwise
	IsPublished  bool
}

// IsDated reports whether the quiz is bound to a specific calendar day.
// A stale instance of a dated quiz never pays out XP.
func (q *Quiz) IsDated() bool {
	return q.Type == QuizDaily && q.ScheduledFor != nil
}

// Question is a scored quiz question with its answer choices.
type Question struct {
	ID          int64
	QuizID      int64
	ItemID      int64 // knowledge item the question trains
	Prompt      string
	Points      int
	Explanation string
	Choices     []Choice
}

// Choice is one answer option of a question.
type Choice struct {
	ID         int64
	QuestionID int64
	Text       string
	IsCorrect  bool
}

// CorrectChoice returns the question's correct choice, or nil if the
// content data is malformed.
func (q *Question) CorrectChoice() *Choice {
	for i := range q.Choices {
		if q.Choices[i].IsCorrect {
			return &q.Choices[i]
		}
	}
	return nil
}

// ChoiceByID returns the choice with the given ID, or nil.
func (q *Question) ChoiceByID(id int64) *Choice {
	for i := range q.Choices {
		if q.Choices[i].ID == id {
			return &q.Choices[i]
		}
	}
	return nil
}

// AttemptStatus is the lifecycle state of a quiz attempt.
type AttemptStatus string

const (
	AttemptActive    AttemptStatus = "active"
	AttemptCompleted AttemptStatus = "completed"
)

// Attempt is one run of a quiz by a user. The engine completes attempts;
// it never deletes them.
type Attempt struct {
	ID          int64
	Ref         uuid.UUID // stable external reference surfaced to callers
	UserID      int64
	QuizID      int64
	Status      AttemptStatus
	Score       int
	XPEarned    int
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewAttempt creates an active attempt for a user and quiz.
func NewAttempt(userID, quizID int64, now time.Time) *Attempt {
	return &Attempt{
		Ref:       uuid.New(),
		UserID:    userID,
		QuizID:    quizID,
		Status:    AttemptActive,
		StartedAt: now,
	}
}

// Complete marks the attempt finished with its final score and XP.
func (a *Attempt) Complete(score, xpEarned int, now time.Time) {
	a.Status = AttemptCompleted
	a.Score = score
	a.XPEarned = xpEarned
	a.CompletedAt = &now
}

// AnswerSubmission is one answered question in a completion event.
type AnswerSubmission struct {
	QuestionID int64
	ChoiceID   int64
}

// AnswerReveal explains the outcome of one question after settlement.
// Unanswered questions appear with SelectedChoiceID zero.
type AnswerReveal struct {
	QuestionID       int64
	SelectedChoiceID int64
	CorrectChoiceID  int64
	IsCorrect        bool
	PointsAwarded    int
	Explanation      string
}

// SettlementResult is the transient outcome of settling one completed
// quiz attempt. The engine returns it to the caller and does not persist
// it as a whole.
type SettlementResult struct {
	AttemptRef uuid.UUID

	Score      int
	MaxScore   int
	Percentage float64

	XPEarned    int
	StreakCount int
	FreezeUsed  bool

	Reveal    []AnswerReveal
	NewBadges []AwardedBadge
}
