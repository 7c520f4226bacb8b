package entities

import "time"

// Level is a CEFR-style proficiency level code.
type Level string

const (
	LevelA1 Level = "a1"
	LevelA2 Level = "a2"
	LevelB1 Level = "b1"
	LevelB2 Level = "b2"
	LevelC1 Level = "c1"
	LevelC2 Level = "c2"
)

// levelLadder orders levels and fixes the XP required to reach each one.
var levelLadder = []struct {
	Level Level
	MinXP int
}{
	{LevelA1, 0},
	{LevelA2, 1000},
	{LevelB1, 3000},
	{LevelB2, 7000},
	{LevelC1, 15000},
	{LevelC2, 30000},
}

// LevelForXP returns the highest level whose XP threshold is reached.
func LevelForXP(totalXP int) Level {
	current := LevelA1
	for _, step := range levelLadder {
		if totalXP >= step.MinXP {
			current = step.Level
		}
	}
	return current
}

// LevelRank returns the position of a level on the ladder, or -1 for an
// unknown code. Higher rank means higher proficiency.
func LevelRank(l Level) int {
	for i, step := range levelLadder {
		if step.Level == l {
			return i
		}
	}
	return -1
}

// UserProgressionState holds the per-user gamification state mutated once
// per settlement.
type UserProgressionState struct {
	UserID int64

	StreakCount       int
	BestStreak        int
	LastActiveDay     string // civil day key of the most recent activity
	StreakFreezeCount int

	TotalXP      int
	CurrentLevel Level

	UpdatedAt time.Time
}

// NewUserProgressionState creates the zero progression state for a user
// with no recorded activity.
func NewUserProgressionState(userID int64) *UserProgressionState {
	return &UserProgressionState{
		UserID:       userID,
		CurrentLevel: LevelA1,
	}
}

// RecordActivity applies a streak transition for activity on todayKey.
func (s *UserProgressionState) RecordActivity(adv StreakAdvance, todayKey string) {
	s.StreakCount = adv.Streak
	if s.StreakCount > s.BestStreak {
		s.BestStreak = s.StreakCount
	}
	s.StreakFreezeCount -= adv.FreezesConsumed
	if s.StreakFreezeCount < 0 {
		s.StreakFreezeCount = 0
	}
	s.LastActiveDay = todayKey
}

// AddXP credits earned experience and recomputes the level.
func (s *UserProgressionState) AddXP(xp int) {
	if xp <= 0 {
		return
	}
	s.TotalXP += xp
	s.CurrentLevel = LevelForXP(s.TotalXP)
}
