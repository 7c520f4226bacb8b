package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp   int
		want Level
	}{
		{0, LevelA1},
		{999, LevelA1},
		{1000, LevelA2},
		{2999, LevelA2},
		{3000, LevelB1},
		{7000, LevelB2},
		{15000, LevelC1},
		{29999, LevelC1},
		{30000, LevelC2},
		{1000000, LevelC2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelRank(t *testing.T) {
	assert.Equal(t, 0, LevelRank(LevelA1))
	assert.Equal(t, 5, LevelRank(LevelC2))
	assert.Greater(t, LevelRank(LevelB2), LevelRank(LevelB1))
	assert.Equal(t, -1, LevelRank(Level("z9")))
}

func TestRecordActivity(t *testing.T) {
	s := NewUserProgressionState(42)
	s.BestStreak = 8
	s.StreakFreezeCount = 1

	s.RecordActivity(StreakAdvance{Streak: 6, FreezesConsumed: 1}, "2025-03-05")

	assert.Equal(t, 6, s.StreakCount)
	assert.Equal(t, 8, s.BestStreak) // best unchanged below previous peak
	assert.Equal(t, 0, s.StreakFreezeCount)
	assert.Equal(t, "2025-03-05", s.LastActiveDay)

	s.RecordActivity(StreakAdvance{Streak: 9}, "2025-03-06")
	assert.Equal(t, 9, s.BestStreak)
}

func TestAddXP(t *testing.T) {
	s := NewUserProgressionState(42)

	s.AddXP(950)
	assert.Equal(t, 950, s.TotalXP)
	assert.Equal(t, LevelA1, s.CurrentLevel)

	s.AddXP(60)
	assert.Equal(t, 1010, s.TotalXP)
	assert.Equal(t, LevelA2, s.CurrentLevel)

	// Zero-XP settlements never touch the total.
	s.AddXP(0)
	assert.Equal(t, 1010, s.TotalXP)
}
