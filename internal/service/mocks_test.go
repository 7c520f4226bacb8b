package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adilzhanb/lingoquest/internal/domain/entities"
	"github.com/adilzhanb/lingoquest/internal/infra/postgres/repository"
)

// In-memory fakes for the repository contracts. They mimic the postgres
// behavior the services depend on: sentinel not-found errors, upsert
// semantics and insert-once award writes.

type fakeQuizRepo struct {
	quiz      *entities.Quiz
	questions []*entities.Question
}

func (r *fakeQuizRepo) GetByID(_ context.Context, quizID int64) (*entities.Quiz, error) {
	if r.quiz == nil || r.quiz.ID != quizID {
		return nil, repository.ErrQuizNotFound
	}
	q := *r.quiz
	return &q, nil
}

func (r *fakeQuizRepo) GetQuestions(_ context.Context, quizID int64) ([]*entities.Question, error) {
	var out []*entities.Question
	for _, q := range r.questions {
		if q.QuizID == quizID {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeAttemptRepo struct {
	nextID    int64
	created   []*entities.Attempt
	completed []*entities.Attempt

	paidQuizzes  map[int64]bool // quizID -> a completed attempt already earned XP
	activityDays []string
	lessonCount  int
	quizCount    int

	completeErr error // returned by the next Complete call, then cleared
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{paidQuizzes: make(map[int64]bool)}
}

func (r *fakeAttemptRepo) Create(_ context.Context, a *entities.Attempt) (int64, error) {
	r.nextID++
	cp := *a
	cp.ID = r.nextID
	r.created = append(r.created, &cp)
	return r.nextID, nil
}

func (r *fakeAttemptRepo) Complete(_ context.Context, a *entities.Attempt) error {
	if r.completeErr != nil {
		err := r.completeErr
		r.completeErr = nil
		return err
	}
	for _, c := range r.created {
		if c.ID == a.ID {
			cp := *a
			r.completed = append(r.completed, &cp)
			if a.XPEarned > 0 {
				r.paidQuizzes[a.QuizID] = true
			}
			return nil
		}
	}
	return repository.ErrAttemptNotFound
}

func (r *fakeAttemptRepo) HasPaidCompletion(_ context.Context, _, quizID int64) (bool, error) {
	return r.paidQuizzes[quizID], nil
}

func (r *fakeAttemptRepo) ActivityDayKeys(_ context.Context, _ int64) ([]string, error) {
	return r.activityDays, nil
}

func (r *fakeAttemptRepo) CountLessonCompletions(_ context.Context, _ int64) (int, error) {
	return r.lessonCount, nil
}

func (r *fakeAttemptRepo) CountQuizCompletions(_ context.Context, _ int64) (int, error) {
	return r.quizCount, nil
}

type itemKey struct {
	userID int64
	itemID int64
}

type fakeItemRepo struct {
	states map[itemKey]*entities.LearnerItemState
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{states: make(map[itemKey]*entities.LearnerItemState)}
}

func (r *fakeItemRepo) Get(_ context.Context, userID, itemID int64) (*entities.LearnerItemState, error) {
	st, ok := r.states[itemKey{userID, itemID}]
	if !ok {
		return nil, repository.ErrItemStateNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *fakeItemRepo) Upsert(_ context.Context, st *entities.LearnerItemState) error {
	cp := *st
	r.states[itemKey{st.UserID, st.ItemID}] = &cp
	return nil
}

type fakeProgressionRepo struct {
	states map[int64]*entities.UserProgressionState
}

func newFakeProgressionRepo() *fakeProgressionRepo {
	return &fakeProgressionRepo{states: make(map[int64]*entities.UserProgressionState)}
}

func (r *fakeProgressionRepo) Get(_ context.Context, userID int64) (*entities.UserProgressionState, error) {
	st, ok := r.states[userID]
	if !ok {
		return nil, repository.ErrProgressionNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *fakeProgressionRepo) Upsert(_ context.Context, st *entities.UserProgressionState) error {
	cp := *st
	r.states[st.UserID] = &cp
	return nil
}

func (r *fakeProgressionRepo) ActiveUserIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(r.states))
	for id := range r.states {
		ids = append(ids, id)
	}
	return ids, nil
}

type awardKey struct {
	userID  int64
	badgeID int64
}

type fakeBadgeRepo struct {
	defs       []*entities.BadgeDefinition
	awards     map[awardKey]time.Time
	awardCalls int
}

func newFakeBadgeRepo(defs ...*entities.BadgeDefinition) *fakeBadgeRepo {
	return &fakeBadgeRepo{defs: defs, awards: make(map[awardKey]time.Time)}
}

func (r *fakeBadgeRepo) ActiveDefinitions(_ context.Context) ([]*entities.BadgeDefinition, error) {
	var out []*entities.BadgeDefinition
	for _, d := range r.defs {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeBadgeRepo) OwnedBadgeIDs(_ context.Context, userID int64) ([]int64, error) {
	var ids []int64
	for k := range r.awards {
		if k.userID == userID {
			ids = append(ids, k.badgeID)
		}
	}
	return ids, nil
}

func (r *fakeBadgeRepo) Award(_ context.Context, userID, badgeID int64, earnedAt time.Time) (bool, error) {
	r.awardCalls++
	k := awardKey{userID, badgeID}
	if _, ok := r.awards[k]; ok {
		return false, nil
	}
	r.awards[k] = earnedAt
	return true, nil
}

func (r *fakeBadgeRepo) Revoke(_ context.Context, userID, badgeID int64) error {
	delete(r.awards, awardKey{userID, badgeID})
	return nil
}

// fakeTransactor emulates transactional semantics over the in-memory
// fakes: on error, the write-side state is restored to its pre-call
// snapshot. Fakes store and return copies, so shallow clones suffice.
type fakeTransactor struct {
	attempts *fakeAttemptRepo
	items    *fakeItemRepo
	progress *fakeProgressionRepo
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	attempts := *t.attempts
	attempts.created = append([]*entities.Attempt(nil), t.attempts.created...)
	attempts.completed = append([]*entities.Attempt(nil), t.attempts.completed...)
	attempts.paidQuizzes = make(map[int64]bool, len(t.attempts.paidQuizzes))
	for k, v := range t.attempts.paidQuizzes {
		attempts.paidQuizzes[k] = v
	}

	items := make(map[itemKey]*entities.LearnerItemState, len(t.items.states))
	for k, v := range t.items.states {
		items[k] = v
	}

	progress := make(map[int64]*entities.UserProgressionState, len(t.progress.states))
	for k, v := range t.progress.states {
		progress[k] = v
	}

	if err := fn(ctx, nil); err != nil {
		attempts.completeErr = t.attempts.completeErr // injected failures stay consumed
		*t.attempts = attempts
		t.items.states = items
		t.progress.states = progress
		return err
	}

	return nil
}

type fakeSettings struct {
	cfg entities.EngineSettings
}

func (p *fakeSettings) EngineSettings(_ context.Context) (*entities.EngineSettings, error) {
	cfg := p.cfg
	return &cfg, nil
}

type fakeNotifier struct {
	calls [][]entities.AwardedBadge
	err   error
}

func (n *fakeNotifier) BadgeAwarded(_ context.Context, _ int64, badges []entities.AwardedBadge) error {
	n.calls = append(n.calls, badges)
	return n.err
}
