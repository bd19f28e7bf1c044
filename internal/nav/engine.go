// Package nav is the navigation statechart of the robot controller: a pause region
// gating all motion on the pause button, and a run region whose transitions and
// actions come from an interchangeable maneuver Policy.
//
// Evaluation is a pure function of (Context, Inputs). Nothing in this package blocks,
// reads a clock, or performs I/O, so a recorded input sequence always reproduces the
// same state and output sequence.
package nav

// #region policy
// Policy is one maneuver strategy for the run region.
type Policy interface {
	// Name identifies the policy in logs and recorded runs.
	Name() string

	// InitialRunState is the history value before the first pause.
	InitialRunState() State

	// StateName names a run-region state; false if the policy does not own it.
	StateName(s State) (string, bool)

	// Rules returns the run-region transitions in priority order.
	Rules() []Rule

	// Action maps the current state to wheel speeds; false for unmapped states.
	Action(c Context, in Inputs) (WheelSpeeds, bool)
}

// StateName names any state, deferring run-region states to the policy.
func StateName(p Policy, s State) string {
	if s.InPauseRegion() {
		return s.String()
	}
	if p != nil {
		if name, ok := p.StateName(s); ok {
			return name
		}
	}
	return s.String()
}

// #endregion policy

// #region evaluate
var pauseRules = PauseRules()

// NewContext returns the start-of-process context for p.
func NewContext(p Policy) Context {
	return Context{
		State:         StateInitial,
		SavedRunState: p.InitialRunState(),
	}
}

// Evaluate performs one control cycle: pause-region check, otherwise one run-region
// transition under p, then the action lookup for the resulting state.
func Evaluate(p Policy, c Context, in Inputs) StepResult {
	res := StepResult{Region: RegionRun}

	var next Context
	var fired *Rule
	if pauseRegionActive(c, in) {
		res.Region = RegionPause
		next, fired = evaluateRules(pauseRules, c, in)
	} else {
		next, fired = evaluateRules(p.Rules(), c, in)
	}
	if fired != nil {
		res.Transition = &Transition{From: c.State, To: next.State, Rule: fired.Name}
	}
	res.Context = next

	if next.State.InPauseRegion() {
		res.Speeds = Stopped
		return res
	}
	speeds, ok := p.Action(next, in)
	if !ok {
		res.Speeds = Stopped
		res.Unmapped = true
		return res
	}
	res.Speeds = speeds
	return res
}

// #endregion evaluate

// #region statechart
// Statechart owns one Context for the life of the control process.
type Statechart struct {
	policy Policy
	ctx    Context
}

// New creates a statechart in StateInitial.
func New(p Policy) *Statechart {
	return &Statechart{policy: p, ctx: NewContext(p)}
}

// Resume creates a statechart from a previously captured context.
func Resume(p Policy, c Context) *Statechart {
	return &Statechart{policy: p, ctx: c}
}

// Step evaluates one cycle and keeps the resulting context.
func (s *Statechart) Step(in Inputs) StepResult {
	res := Evaluate(s.policy, s.ctx, in)
	s.ctx = res.Context
	return res
}

// Context returns a copy of the current context.
func (s *Statechart) Context() Context {
	return s.ctx
}

// Policy returns the active maneuver policy.
func (s *Statechart) Policy() Policy {
	return s.policy
}

// StateName names the current state.
func (s *Statechart) StateName() string {
	return StateName(s.policy, s.ctx.State)
}

// #endregion statechart
