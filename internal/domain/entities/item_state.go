package entities

import "time"

// ReviewIntervals is the fixed review interval table in days, indexed by stage.
// Stage 0 means the item is due immediately.
var ReviewIntervals = [...]int{0, 1, 3, 7, 21, 60}

// MaxStage is the highest mastery stage.
const MaxStage = 5

// LearnerItemState tracks one learner's mastery of one knowledge item.
// A row is created on the first review of an item and mutated in place on
// every later review; it is never deleted.
type LearnerItemState struct {
	UserID int64
	ItemID int64

	Stage           int // mastery stage, always within [0, MaxStage]
	IntervalDays    int // always the ReviewIntervals entry for Stage
	RepetitionCount int // total reviews recorded, including the first

	// Easiness is a legacy SM-2 field kept for schema compatibility.
	// The stage-based algorithm does not read it.
	Easiness float64

	DueAt          time.Time
	LastReviewedAt time.Time
}

// NewLearnerItemState creates the initial state for an item the user has
// never reviewed. The first ApplyReview call turns it into stage 1 (correct)
// or stage 0 (incorrect).
func NewLearnerItemState(userID, itemID int64) *LearnerItemState {
	return &LearnerItemState{
		UserID:   userID,
		ItemID:   itemID,
		Stage:    0,
		Easiness: 2.5,
	}
}

// ApplyReview advances the review schedule from one correctness signal.
// Correct answers promote by one stage, incorrect answers demote by two:
// a lapse signals fragile memory, so the climb back is deliberately slower
// than the fall. The returned flag reports whether a stored stage outside
// [0, MaxStage] had to be clamped before applying the transition.
func (s *LearnerItemState) ApplyReview(isCorrect bool, now time.Time) (repaired bool) {
	if s.Stage < 0 {
		s.Stage = 0
		repaired = true
	} else if s.Stage > MaxStage {
		s.Stage = MaxStage
		repaired = true
	}

	if isCorrect {
		s.Stage = min(MaxStage, s.Stage+1)
	} else {
		s.Stage = max(0, s.Stage-2)
	}

	s.IntervalDays = ReviewIntervals[s.Stage]
	s.RepetitionCount++
	s.LastReviewedAt = now

	if s.IntervalDays == 0 {
		s.DueAt = now
	} else {
		s.DueAt = now.AddDate(0, 0, s.IntervalDays)
	}

	return repaired
}
