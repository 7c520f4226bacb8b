package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeCriteria_Met(t *testing.T) {
	snap := StatsSnapshot{
		StreakCount:      7,
		TotalXP:          1200,
		CurrentLevel:     LevelB1,
		LessonsCompleted: 12,
		QuizzesCompleted: 30,
	}

	tests := []struct {
		name     string
		criteria BadgeCriteria
		want     bool
	}{
		{"streak reached", BadgeCriteria{Kind: CriteriaStreak, Threshold: 7}, true},
		{"streak short", BadgeCriteria{Kind: CriteriaStreak, Threshold: 8}, false},
		{"xp reached", BadgeCriteria{Kind: CriteriaTotalXP, Threshold: 1000}, true},
		{"xp short", BadgeCriteria{Kind: CriteriaTotalXP, Threshold: 5000}, false},
		{"level below current", BadgeCriteria{Kind: CriteriaLevelReached, Level: LevelA2}, true},
		{"level equal", BadgeCriteria{Kind: CriteriaLevelReached, Level: LevelB1}, true},
		{"level above current", BadgeCriteria{Kind: CriteriaLevelReached, Level: LevelC1}, false},
		{"lessons reached", BadgeCriteria{Kind: CriteriaLessonCompletion, Threshold: 10}, true},
		{"quizzes short", BadgeCriteria{Kind: CriteriaTotalQuizzes, Threshold: 31}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.criteria.Met(snap)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBadgeCriteria_Met_Malformed(t *testing.T) {
	_, err := BadgeCriteria{Kind: "mystery"}.Met(StatsSnapshot{})
	assert.Error(t, err)

	_, err = BadgeCriteria{Kind: CriteriaLevelReached, Level: "z9"}.Met(StatsSnapshot{})
	assert.Error(t, err)
}

func TestBadgeCriteria_Validate(t *testing.T) {
	assert.NoError(t, BadgeCriteria{Kind: CriteriaStreak, Threshold: 3}.Validate())
	assert.NoError(t, BadgeCriteria{Kind: CriteriaLevelReached, Level: LevelB2}.Validate())

	assert.Error(t, BadgeCriteria{Kind: CriteriaStreak}.Validate())
	assert.Error(t, BadgeCriteria{Kind: CriteriaTotalXP, Threshold: -5}.Validate())
	assert.Error(t, BadgeCriteria{Kind: CriteriaLevelReached, Level: "zz"}.Validate())
	assert.Error(t, BadgeCriteria{Kind: "mystery", Threshold: 1}.Validate())
}

func TestBadgeCriteria_Regressable(t *testing.T) {
	assert.True(t, BadgeCriteria{Kind: CriteriaStreak}.Regressable())
	assert.True(t, BadgeCriteria{Kind: CriteriaLevelReached}.Regressable())
	assert.False(t, BadgeCriteria{Kind: CriteriaTotalXP}.Regressable())
	assert.False(t, BadgeCriteria{Kind: CriteriaLessonCompletion}.Regressable())
	assert.False(t, BadgeCriteria{Kind: CriteriaTotalQuizzes}.Regressable())
}
