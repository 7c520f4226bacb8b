package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReview_FirstEncounter(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("incorrect initializes at stage 0", func(t *testing.T) {
		st := NewLearnerItemState(7, 101)
		repaired := st.ApplyReview(false, now)

		assert.False(t, repaired)
		assert.Equal(t, 0, st.Stage)
		assert.Equal(t, 0, st.IntervalDays)
		assert.Equal(t, 1, st.RepetitionCount)
		assert.True(t, st.DueAt.Equal(now))

		// Second review, now correct: stage 1, due tomorrow.
		st.ApplyReview(true, now)
		assert.Equal(t, 1, st.Stage)
		assert.Equal(t, 1, st.IntervalDays)
		assert.Equal(t, 2, st.RepetitionCount)
		assert.True(t, st.DueAt.Equal(now.AddDate(0, 0, 1)))
	})

	t.Run("correct skips stage 0", func(t *testing.T) {
		st := NewLearnerItemState(7, 101)
		st.ApplyReview(true, now)

		assert.Equal(t, 1, st.Stage)
		assert.Equal(t, 1, st.IntervalDays)
		assert.Equal(t, 1, st.RepetitionCount)
	})
}

func TestApplyReview_Transitions(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		stage     int
		isCorrect bool
		wantStage int
	}{
		{"correct promotes by one", 2, true, 3},
		{"correct caps at max stage", 5, true, 5},
		{"incorrect demotes by two", 5, false, 3},
		{"incorrect from stage 3", 3, false, 1},
		{"incorrect never goes negative", 1, false, 0},
		{"incorrect at floor stays", 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &LearnerItemState{UserID: 1, ItemID: 2, Stage: tt.stage}
			st.ApplyReview(tt.isCorrect, now)

			assert.Equal(t, tt.wantStage, st.Stage)
			assert.Equal(t, ReviewIntervals[tt.wantStage], st.IntervalDays)
		})
	}
}

func TestApplyReview_ConsecutiveLapses(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	st := &LearnerItemState{UserID: 1, ItemID: 2, Stage: 5}
	st.ApplyReview(false, now)
	require.Equal(t, 3, st.Stage)
	st.ApplyReview(false, now)
	require.Equal(t, 1, st.Stage)
	st.ApplyReview(false, now)
	require.Equal(t, 0, st.Stage)
}

func TestApplyReview_StageStaysInRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// Arbitrary mixed sequence; the invariant must hold throughout.
	signals := []bool{true, true, false, true, false, false, true, true, true, true, true, false, true}

	st := NewLearnerItemState(1, 2)
	for i, correct := range signals {
		st.ApplyReview(correct, now)

		require.GreaterOrEqual(t, st.Stage, 0)
		require.LessOrEqual(t, st.Stage, MaxStage)
		require.Equal(t, ReviewIntervals[st.Stage], st.IntervalDays)
		require.Equal(t, i+1, st.RepetitionCount)
	}
}

func TestApplyReview_RepairsDriftedStage(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	st := &LearnerItemState{UserID: 1, ItemID: 2, Stage: 9}
	repaired := st.ApplyReview(false, now)

	assert.True(t, repaired)
	assert.Equal(t, 3, st.Stage) // clamped to 5, then demoted by two

	st = &LearnerItemState{UserID: 1, ItemID: 2, Stage: -4}
	repaired = st.ApplyReview(true, now)

	assert.True(t, repaired)
	assert.Equal(t, 1, st.Stage)
}
