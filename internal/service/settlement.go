package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres/repository"
)

// SettlementService settles completed quiz attempts: it scores answers,
// decides XP eligibility, advances review schedules and the daily streak,
// persists the outcome and evaluates badges.
//
// Callers must serialize settlements per user (at most one in flight).
// All writes of one settlement share a single transaction, so a failed
// settlement leaves no partial state and is retried in full.
type SettlementService struct {
	quizRepo    QuizRepository
	attemptRepo AttemptRepository
	tr          Transactor
	bind        TxBinder
	settings    SettingsProvider
	badges      *BadgeService
	notifier    BadgeNotifier

	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewSettlementService creates a settlement service. The timezone is the
// single fixed civil zone all day-key logic runs in.
func NewSettlementService(
	quizRepo QuizRepository,
	attemptRepo AttemptRepository,
	tr Transactor,
	bind TxBinder,
	settings SettingsProvider,
	badges *BadgeService,
	loc *time.Location,
	logger *zap.Logger,
) *SettlementService {
	return &SettlementService{
		quizRepo:    quizRepo,
		attemptRepo: attemptRepo,
		tr:          tr,
		bind:        bind,
		settings:    settings,
		badges:      badges,
		loc:         loc,
		logger:      logger,
		now:         time.Now,
	}
}

// SetNotifier sets the badge notifier (called after the delivery layer is created).
func (s *SettlementService) SetNotifier(notifier BadgeNotifier) {
	s.notifier = notifier
}

// Settle processes one quiz completion event for a user.
func (s *SettlementService) Settle(
	ctx context.Context,
	userID int64,
	quizID int64,
	answers []entities.AnswerSubmission,
) (*entities.SettlementResult, error) {
	cfg, err := s.settings.EngineSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load engine settings: %w", err)
	}

	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz %d: %w", quizID, err)
	}

	questions, err := s.quizRepo.GetQuestions(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("get questions for quiz %d: %w", quizID, err)
	}

	// Validate the event before touching any state.
	byQuestion, err := validateAnswers(quiz, questions, answers)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := entities.DayKey(now, s.loc)

	// Score: correct answers sum their question's points, unanswered
	// questions contribute zero.
	score, maxScore := 0, 0
	for _, q := range questions {
		maxScore += q.Points
		if ans, ok := byQuestion[q.ID]; ok && answerCorrect(q, ans) {
			score += q.Points
		}
	}

	xpEarned, err := s.decideXP(ctx, userID, quiz, score, today, cfg)
	if err != nil {
		return nil, err
	}

	attempt := entities.NewAttempt(userID, quizID, now)

	// All writes of the settlement commit together: a crash mid-way must
	// not leave XP credited without the attempt's xp_earned guard, or the
	// retry would pay the same quiz twice.
	var prog *entities.UserProgressionState
	var adv entities.StreakAdvance

	err = s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		attempts, items, progression := s.bind(tx)

		attemptID, err := attempts.Create(ctx, attempt)
		if err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}
		attempt.ID = attemptID

		// Review scheduling for every answered question.
		for _, q := range questions {
			ans, ok := byQuestion[q.ID]
			if !ok {
				continue
			}
			if err := s.recordReview(ctx, items, userID, q, answerCorrect(q, ans), now); err != nil {
				return err
			}
		}

		// Streak advances unconditionally: finishing an attempt counts as
		// engagement even when it pays zero XP.
		prog, err = progression.Get(ctx, userID)
		if err != nil {
			if !errors.Is(err, repository.ErrProgressionNotFound) {
				return fmt.Errorf("get progression state: %w", err)
			}
			prog = entities.NewUserProgressionState(userID)
		}

		freezes := prog.StreakFreezeCount
		if !cfg.StreakFreezeEnabled {
			freezes = 0
		}
		adv = entities.AdvanceStreak(prog.StreakCount, prog.LastActiveDay, today, freezes)
		prog.RecordActivity(adv, today)
		prog.AddXP(xpEarned)
		prog.UpdatedAt = now

		if err := progression.Upsert(ctx, prog); err != nil {
			return fmt.Errorf("persist progression state: %w", err)
		}

		attempt.Complete(score, xpEarned, now)
		if err := attempts.Complete(ctx, attempt); err != nil {
			return fmt.Errorf("complete attempt: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Badges evaluate strictly after persistence so criteria see the
	// freshest numbers.
	snap, err := s.buildSnapshot(ctx, prog)
	if err != nil {
		return nil, err
	}
	newBadges, err := s.badges.Evaluate(ctx, userID, snap)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && len(newBadges) > 0 {
		if err := s.notifier.BadgeAwarded(ctx, userID, newBadges); err != nil {
			s.logger.Warn("badge notification failed",
				zap.Int64("user_id", userID),
				zap.Error(err))
		}
	}

	result := &entities.SettlementResult{
		AttemptRef:  attempt.Ref,
		Score:       score,
		MaxScore:    maxScore,
		XPEarned:    xpEarned,
		StreakCount: prog.StreakCount,
		FreezeUsed:  adv.FreezesConsumed > 0,
		Reveal:      buildReveal(questions, byQuestion),
		NewBadges:   newBadges,
	}
	if maxScore > 0 {
		result.Percentage = float64(score) / float64(maxScore) * 100
	}

	s.logger.Info("settlement completed",
		zap.Int64("user_id", userID),
		zap.Int64("quiz_id", quizID),
		zap.Int("score", score),
		zap.Int("xp_earned", xpEarned),
		zap.Int("streak", prog.StreakCount),
		zap.Int("new_badges", len(newBadges)))

	return result, nil
}

// decideXP applies the XP eligibility policy. Default is eligible; a
// prior paid completion of the same quiz or a dated quiz settled off its
// scheduled day makes the attempt worth zero XP. Replays themselves stay
// allowed.
func (s *SettlementService) decideXP(
	ctx context.Context,
	userID int64,
	quiz *entities.Quiz,
	score int,
	todayKey string,
	cfg *entities.EngineSettings,
) (int, error) {
	if quiz.IsDated() {
		// A stale daily quiz never pays out, regardless of history.
		// ScheduledFor is already a civil date, not an instant; running it
		// through the zone would shift it across midnight west of UTC.
		if quiz.ScheduledFor.Format(entities.DayKeyLayout) != todayKey {
			return 0, nil
		}
	}

	paid, err := s.attemptRepo.HasPaidCompletion(ctx, userID, quiz.ID)
	if err != nil {
		return 0, fmt.Errorf("check paid completion: %w", err)
	}
	if paid {
		return 0, nil
	}

	xp := score
	if cfg.XPMultiplier > 1 {
		xp = int(math.Round(float64(score) * cfg.XPMultiplier))
	}
	return xp, nil
}

// recordReview runs the stage scheduler for one answered question and
// upserts the result. Stored stage drift is repaired in place and logged,
// never escalated.
func (s *SettlementService) recordReview(
	ctx context.Context,
	items ItemStateRepository,
	userID int64,
	q *entities.Question,
	isCorrect bool,
	now time.Time,
) error {
	st, err := items.Get(ctx, userID, q.ItemID)
	if err != nil {
		if !errors.Is(err, repository.ErrItemStateNotFound) {
			return fmt.Errorf("get item state: %w", err)
		}
		st = entities.NewLearnerItemState(userID, q.ItemID)
	}

	if st.ApplyReview(isCorrect, now) {
		s.logger.Warn("item stage out of range, clamped",
			zap.Int64("user_id", userID),
			zap.Int64("item_id", q.ItemID))
	}

	if err := items.Upsert(ctx, st); err != nil {
		return fmt.Errorf("upsert item state: %w", err)
	}
	return nil
}

// buildSnapshot assembles the immutable stats snapshot badge criteria are
// evaluated against, using the freshly persisted progression state and
// completion counts.
func (s *SettlementService) buildSnapshot(ctx context.Context, prog *entities.UserProgressionState) (entities.StatsSnapshot, error) {
	lessons, err := s.attemptRepo.CountLessonCompletions(ctx, prog.UserID)
	if err != nil {
		return entities.StatsSnapshot{}, fmt.Errorf("count lesson completions: %w", err)
	}
	quizzes, err := s.attemptRepo.CountQuizCompletions(ctx, prog.UserID)
	if err != nil {
		return entities.StatsSnapshot{}, fmt.Errorf("count quiz completions: %w", err)
	}

	return entities.StatsSnapshot{
		StreakCount:      prog.StreakCount,
		TotalXP:          prog.TotalXP,
		CurrentLevel:     prog.CurrentLevel,
		LessonsCompleted: lessons,
		QuizzesCompleted: quizzes,
	}, nil
}

// validateAnswers checks every submission against the quiz content and
// indexes answers by question. Nothing is mutated on failure.
func validateAnswers(
	quiz *entities.Quiz,
	questions []*entities.Question,
	answers []entities.AnswerSubmission,
) (map[int64]entities.AnswerSubmission, error) {
	byID := make(map[int64]*entities.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	byQuestion := make(map[int64]entities.AnswerSubmission, len(answers))
	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %d does not belong to quiz %d: %w",
				ans.QuestionID, quiz.ID, ErrValidation)
		}
		if _, dup := byQuestion[ans.QuestionID]; dup {
			return nil, fmt.Errorf("duplicate answer for question %d: %w",
				ans.QuestionID, ErrValidation)
		}
		if q.ChoiceByID(ans.ChoiceID) == nil {
			return nil, fmt.Errorf("choice %d does not belong to question %d: %w",
				ans.ChoiceID, ans.QuestionID, ErrValidation)
		}
		byQuestion[ans.QuestionID] = ans
	}

	return byQuestion, nil
}

func answerCorrect(q *entities.Question, ans entities.AnswerSubmission) bool {
	choice := q.ChoiceByID(ans.ChoiceID)
	return choice != nil && choice.IsCorrect
}

// buildReveal produces the per-question reveal for every quiz question,
// answered or not.
func buildReveal(
	questions []*entities.Question,
	byQuestion map[int64]entities.AnswerSubmission,
) []entities.AnswerReveal {
	reveal := make([]entities.AnswerReveal, 0, len(questions))

	for _, q := range questions {
		r := entities.AnswerReveal{
			QuestionID:  q.ID,
			Explanation: q.Explanation,
		}
		if correct := q.CorrectChoice(); correct != nil {
			r.CorrectChoiceID = correct.ID
		}
		if ans, ok := byQuestion[q.ID]; ok {
			r.SelectedChoiceID = ans.ChoiceID
			r.IsCorrect = answerCorrect(q, ans)
			if r.IsCorrect {
				r.PointsAwarded = q.Points
			}
		}
		reveal = append(reveal, r)
	}

	return reveal
}
