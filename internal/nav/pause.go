package nav

// #region pause-region
// pauseRegionActive is the pause region's entry condition. It has absolute priority
// over the run region and is evaluated first on every cycle.
func pauseRegionActive(c Context, in Inputs) bool {
	return c.State.InPauseRegion() || in.Sensors.Play
}

// PauseRules returns the pause-region transition table in priority order.
// Only consulted while pauseRegionActive holds.
func PauseRules() []Rule {
	return []Rule{
		{
			Name:  "arm",
			Guard: func(c Context, _ Inputs) bool { return c.State == StateInitial },
			Fire: func(c Context, in Inputs) Context {
				c.Simulated = in.IsSimulator
				return goTo(c, StateUnpauseWaitPress)
			},
		},
		{
			Name: "pause-released",
			Guard: func(c Context, in Inputs) bool {
				return c.State == StatePauseWaitRelease && !in.Sensors.Play
			},
			Fire: func(c Context, _ Inputs) Context { return goTo(c, StateUnpauseWaitPress) },
		},
		{
			Name: "unpause-pressed",
			Guard: func(c Context, in Inputs) bool {
				return c.State == StateUnpauseWaitPress && in.Sensors.Play
			},
			Fire: func(c Context, _ Inputs) Context { return goTo(c, StateUnpauseWaitRelease) },
		},
		{
			Name: "resume",
			Guard: func(c Context, in Inputs) bool {
				return c.State == StateUnpauseWaitRelease && !in.Sensors.Play
			},
			Fire: func(c Context, _ Inputs) Context { return goTo(c, c.SavedRunState) },
		},
		{
			Name: "pause",
			Guard: func(c Context, in Inputs) bool {
				return !c.State.InPauseRegion() && in.Sensors.Play
			},
			Fire: func(c Context, _ Inputs) Context {
				c.SavedRunState = c.State
				return goTo(c, StatePauseWaitRelease)
			},
		},
	}
}

// #endregion pause-region
