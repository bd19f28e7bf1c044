package nav

import (
	"fmt"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// #region state
// State is the statechart's current tag. The four pause-region states are fixed;
// run-region states are allocated by the active Policy through RunState.
type State int

const (
	StateInitial State = iota
	StatePauseWaitRelease
	StateUnpauseWaitPress
	StateUnpauseWaitRelease

	runStateBase
)

// RunState returns the i-th run-region state of a policy.
func RunState(i int) State {
	return runStateBase + State(i)
}

// RunIndex is the inverse of RunState; it returns -1 for pause-region states.
func (s State) RunIndex() int {
	if s < runStateBase {
		return -1
	}
	return int(s - runStateBase)
}

// InPauseRegion reports whether s belongs to the pause region (Initial included).
func (s State) InPauseRegion() bool {
	return s >= StateInitial && s < runStateBase
}

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StatePauseWaitRelease:
		return "PAUSE_WAIT_RELEASE"
	case StateUnpauseWaitPress:
		return "UNPAUSE_WAIT_PRESS"
	case StateUnpauseWaitRelease:
		return "UNPAUSE_WAIT_RELEASE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// #endregion state

// #region direction
// Direction is the side on which an obstacle was detected.
type Direction int

const (
	DirectionLeft Direction = iota
	DirectionRight
)

func (d Direction) String() string {
	if d == DirectionRight {
		return "RIGHT"
	}
	return "LEFT"
}

// #endregion direction

// #region context
// Context is the statechart's persistent memory. Only Evaluate produces new values.
type Context struct {
	State         State
	SavedRunState State // history for the pause region; always a run-region state

	ManeuverStartDistance int32 // odometry baseline of the current maneuver, mm
	ManeuverStartAngle    int32 // odometry baseline of the current maneuver, deg

	ObstacleDirection Direction
	Simulated         bool // isSimulator flag seen on the Initial transition
}

// snapshot re-baselines the current maneuver on the given odometry.
func (c Context) snapshot(odo sensors.Odometry) Context {
	c.ManeuverStartDistance = odo.NetDistance
	c.ManeuverStartAngle = odo.NetAngle
	return c
}

// DistanceProgress is |netDistance - maneuverStartDistance|.
func (c Context) DistanceProgress(odo sensors.Odometry) int32 {
	return abs32(odo.NetDistance - c.ManeuverStartDistance)
}

// AngleProgress is |netAngle - maneuverStartAngle|.
func (c Context) AngleProgress(odo sensors.Odometry) int32 {
	return abs32(odo.NetAngle - c.ManeuverStartAngle)
}

// #endregion context

// #region io
// Inputs are the three decoded per-cycle inputs plus the execution flag.
type Inputs struct {
	Odometry    sensors.Odometry
	Sensors     sensors.Snapshot
	Accel       sensors.Accelerometer // carried for interface parity; no rule reads it
	IsSimulator bool
}

// WheelSpeeds is the per-cycle actuation output, in mm/s.
type WheelSpeeds struct {
	Left  int16 `json:"left"`
	Right int16 `json:"right"`
}

// Stopped is the safe default output.
var Stopped = WheelSpeeds{}

// Both returns equal speeds on both wheels.
func Both(speed int16) WheelSpeeds {
	return WheelSpeeds{Left: speed, Right: speed}
}

// #endregion io

// #region step-result
// Transition records the rule that fired during one cycle.
type Transition struct {
	From State
	To   State
	Rule string
}

// StepResult is everything one evaluation produces.
type StepResult struct {
	Context    Context
	Speeds     WheelSpeeds
	Transition *Transition // nil on stutter
	Region     Region      // region whose rules were evaluated
	Unmapped   bool        // state had no action; Speeds forced to Stopped
}

// Region identifies which sub-machine evaluated a cycle.
type Region int

const (
	RegionPause Region = iota
	RegionRun
)

func (r Region) String() string {
	if r == RegionRun {
		return "run"
	}
	return "pause"
}

// #endregion step-result

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
