package nav

import (
	"errors"
	"fmt"
)

// #region legs
// LegKind selects whether a leg is bounded by distance or by angle.
type LegKind int

const (
	LegDrive LegKind = iota // threshold in mm, both wheels at Speed
	LegTurn                 // threshold in deg, left at Speed, right at -Speed
)

func (k LegKind) String() string {
	if k == LegTurn {
		return "turn"
	}
	return "drive"
}

// Leg is one configured step of a scripted path.
type Leg struct {
	Name      string
	Kind      LegKind
	Threshold int32 // mm for drive legs, deg for turn legs
	Speed     int16 // mm/s; for turns the sign selects the rotation
}

func (l Leg) speeds() WheelSpeeds {
	if l.Kind == LegTurn {
		return WheelSpeeds{Left: l.Speed, Right: -l.Speed}
	}
	return Both(l.Speed)
}

// progress is the leg's accumulated distance or angle since its start snapshot.
func (l Leg) progress(c Context, in Inputs) int32 {
	if l.Kind == LegTurn {
		return c.AngleProgress(in.Odometry)
	}
	return c.DistanceProgress(in.Odometry)
}

// #endregion legs

// #region script
// Completion decides what happens once the terminal leg reaches its threshold.
type Completion int

const (
	// CompleteHold keeps the terminal leg's action indefinitely.
	CompleteHold Completion = iota
	// CompleteStop moves to a terminal Done state with both wheels stopped.
	CompleteStop
)

// Trigger lists the sensor conditions that restart the script at TriggerLeg.
type Trigger struct {
	Wall bool
	Bump bool
}

func (t Trigger) fired(in Inputs) bool {
	return (t.Wall && in.Sensors.Wall) || (t.Bump && in.Sensors.Bump())
}

// Script is a data-driven leg sequence.
type Script struct {
	Legs       []Leg
	StartLeg   int // history value before the first pause
	TriggerLeg int // leg entered when Trigger fires
	Trigger    Trigger
	OnComplete Completion
}

// DefaultScript reproduces the dead-reckoned path the controller shipped with: on a
// wall or bump it turns right, then follows the drive/turn legs from StartLeg.
func DefaultScript() Script {
	return Script{
		Legs: []Leg{
			{Name: "TURN", Kind: LegTurn, Threshold: 79, Speed: 100},
			{Name: "DRIVE", Kind: LegDrive, Threshold: 800, Speed: 200},
			{Name: "TURN_LEFT", Kind: LegTurn, Threshold: 88, Speed: -100},
			{Name: "DRIVE2", Kind: LegDrive, Threshold: 1500, Speed: 200},
			{Name: "TURN_LEFT2", Kind: LegTurn, Threshold: 89, Speed: -100},
			{Name: "DRIVE3", Kind: LegDrive, Threshold: 1000, Speed: 200},
			{Name: "TURN2", Kind: LegTurn, Threshold: 50, Speed: 100},
			{Name: "DRIVE4", Kind: LegDrive, Threshold: 9000, Speed: 200},
		},
		StartLeg:   1,
		TriggerLeg: 0,
		Trigger:    Trigger{Wall: true, Bump: true},
		OnComplete: CompleteHold,
	}
}

var ErrInvalidScript = errors.New("nav: invalid script")

// #endregion script

// #region scripted
// Scripted follows a fixed sequence of drive and turn legs, with a single reactive
// trigger layered on top.
type Scripted struct {
	script Script
	done   State
	rules  []Rule
}

// NewScripted validates a script and builds its policy.
func NewScripted(script Script) (*Scripted, error) {
	n := len(script.Legs)
	if n == 0 {
		return nil, fmt.Errorf("%w: no legs", ErrInvalidScript)
	}
	if script.StartLeg < 0 || script.StartLeg >= n {
		return nil, fmt.Errorf("%w: start leg %d out of range [0,%d)", ErrInvalidScript, script.StartLeg, n)
	}
	if script.TriggerLeg < 0 || script.TriggerLeg >= n {
		return nil, fmt.Errorf("%w: trigger leg %d out of range [0,%d)", ErrInvalidScript, script.TriggerLeg, n)
	}
	for i, leg := range script.Legs {
		if leg.Threshold < 0 {
			return nil, fmt.Errorf("%w: leg %d has negative threshold %d", ErrInvalidScript, i, leg.Threshold)
		}
	}
	legs := make([]Leg, n)
	copy(legs, script.Legs)
	script.Legs = legs

	s := &Scripted{script: script, done: RunState(n)}
	s.rules = s.buildRules()
	return s, nil
}

// MustScripted is NewScripted for scripts known to be valid.
func MustScripted(script Script) *Scripted {
	s, err := NewScripted(script)
	if err != nil {
		panic(err)
	}
	return s
}

// Script returns a copy of the policy's configuration.
func (s *Scripted) Script() Script {
	out := s.script
	out.Legs = append([]Leg(nil), s.script.Legs...)
	return out
}

// LegState is the run-region state of leg i.
func (s *Scripted) LegState(i int) State { return RunState(i) }

// DoneState is the terminal stopped state used with CompleteStop.
func (s *Scripted) DoneState() State { return s.done }

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) InitialRunState() State { return RunState(s.script.StartLeg) }

func (s *Scripted) StateName(st State) (string, bool) {
	if s.finished(st) {
		return "DONE", true
	}
	leg, ok := s.leg(st)
	if !ok {
		return "", false
	}
	if leg.Name != "" {
		return leg.Name, true
	}
	return fmt.Sprintf("LEG%d_%s", st.RunIndex(), leg.Kind), true
}

func (s *Scripted) Rules() []Rule { return s.rules }

func (s *Scripted) leg(st State) (Leg, bool) {
	i := st.RunIndex()
	if i < 0 || i >= len(s.script.Legs) {
		return Leg{}, false
	}
	return s.script.Legs[i], true
}

// finished reports whether st is the Done state of a CompleteStop script.
func (s *Scripted) finished(st State) bool {
	return st == s.done && s.script.OnComplete == CompleteStop
}

func (s *Scripted) terminal(st State) bool {
	return st.RunIndex() == len(s.script.Legs)-1
}

func (s *Scripted) buildRules() []Rule {
	rules := []Rule{
		{
			// Fires on every asserted cycle, so contact keeps restarting the leg.
			Name: "trigger",
			Guard: func(c Context, in Inputs) bool {
				return !s.finished(c.State) && s.script.Trigger.fired(in)
			},
			Fire: func(c Context, in Inputs) Context {
				return goTo(c.snapshot(in.Odometry), RunState(s.script.TriggerLeg))
			},
		},
		{
			Name: "leg-complete",
			Guard: func(c Context, in Inputs) bool {
				leg, ok := s.leg(c.State)
				return ok && !s.terminal(c.State) && leg.progress(c, in) >= leg.Threshold
			},
			Fire: func(c Context, in Inputs) Context {
				return goTo(c.snapshot(in.Odometry), c.State+1)
			},
		},
	}
	if s.script.OnComplete == CompleteStop {
		rules = append(rules, Rule{
			Name: "script-complete",
			Guard: func(c Context, in Inputs) bool {
				leg, ok := s.leg(c.State)
				return ok && s.terminal(c.State) && leg.progress(c, in) >= leg.Threshold
			},
			Fire: func(c Context, in Inputs) Context {
				return goTo(c.snapshot(in.Odometry), s.done)
			},
		})
	}
	return rules
}

func (s *Scripted) Action(c Context, _ Inputs) (WheelSpeeds, bool) {
	if s.finished(c.State) {
		return Stopped, true
	}
	leg, ok := s.leg(c.State)
	if !ok {
		return Stopped, false
	}
	return leg.speeds(), true
}

// #endregion scripted

var _ Policy = (*Scripted)(nil)
