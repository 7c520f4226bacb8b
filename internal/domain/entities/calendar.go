package entities

import "time"

// DayKeyLayout is the civil date format used as the unit of "one day"
// for all streak logic.
const DayKeyLayout = "2006-01-02"

// DayKey converts an instant into its wall-clock calendar date in the
// given fixed zone. The zone comes from configuration, never from the
// server locale, so the same instant yields the same key on every
// deployment. Using the tz database keeps the key correct across
// daylight-saving transitions.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayKeyLayout)
}

// ParseDayKey parses a day key back into a UTC midnight instant,
// used only for day arithmetic between keys.
func ParseDayKey(key string) (time.Time, error) {
	return time.Parse(DayKeyLayout, key)
}

// dayKeyGap returns the number of civil days from one key to another.
// Returns -1 when either key does not parse.
func dayKeyGap(from, to string) int {
	a, err := ParseDayKey(from)
	if err != nil {
		return -1
	}
	b, err := ParseDayKey(to)
	if err != nil {
		return -1
	}
	return int(b.Sub(a).Hours() / 24)
}

// StreakAdvance is the outcome of recording one day of activity.
type StreakAdvance struct {
	Streak          int
	FreezesConsumed int
}

// AdvanceStreak computes the streak transition for activity on todayKey
// given the last recorded active day.
//
// Same day: already counted, nothing changes. Gap of one day: the streak
// extends. Gap of exactly two days with a freeze available: the freeze
// retroactively fills the single missed day and today still extends the
// streak. Any other gap resets to 1: a gap larger than two days is an
// unconditional reset regardless of how many freezes the user holds.
func AdvanceStreak(streak int, lastActiveDayKey, todayKey string, freezesAvailable int) StreakAdvance {
	if lastActiveDayKey == todayKey {
		return StreakAdvance{Streak: streak}
	}

	switch gap := dayKeyGap(lastActiveDayKey, todayKey); {
	case gap == 1:
		return StreakAdvance{Streak: streak + 1}
	case gap == 2 && freezesAvailable > 0:
		return StreakAdvance{Streak: streak + 1, FreezesConsumed: 1}
	default:
		// Covers no prior activity, unparseable keys and broken streaks.
		return StreakAdvance{Streak: 1}
	}
}

// ReconcileStreak recomputes the authoritative streak from the full set of
// activity day keys: the maximal run of consecutive days ending at today or
// yesterday. A streak whose last day is yesterday is not yet broken, merely
// static. Duplicate keys (several completions on one day) count once.
// The function is pure and idempotent.
func ReconcileStreak(dayKeys []string, todayKey string) int {
	if len(dayKeys) == 0 {
		return 0
	}

	days := make(map[string]struct{}, len(dayKeys))
	for _, k := range dayKeys {
		days[k] = struct{}{}
	}

	today, err := ParseDayKey(todayKey)
	if err != nil {
		return 0
	}

	end := today
	if _, ok := days[todayKey]; !ok {
		yesterday := today.AddDate(0, 0, -1)
		if _, ok := days[yesterday.Format(DayKeyLayout)]; !ok {
			return 0
		}
		end = yesterday
	}

	streak := 0
	for d := end; ; d = d.AddDate(0, 0, -1) {
		if _, ok := days[d.Format(DayKeyLayout)]; !ok {
			break
		}
		streak++
	}
	return streak
}
