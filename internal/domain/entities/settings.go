package entities

// EngineSettings is the global tuning the settings provider supplies.
// It is read once per settlement.
type EngineSettings struct {
	XPMultiplier         float64 // applied to earned XP when > 1
	StreakFreezeEnabled  bool    // allow consuming streak freezes
	BadgeRevocationSweep bool    // enable the administrative badge sweep
}

// DefaultEngineSettings returns the settings used when no row exists yet.
func DefaultEngineSettings() *EngineSettings {
	return &EngineSettings{
		XPMultiplier:        1.0,
		StreakFreezeEnabled: true,
	}
}
