package nav

// #region reactive-states
var (
	StateDrive    = RunState(0)
	StateAvoid    = RunState(1)
	StateReorient = RunState(2)
)

// #endregion reactive-states

// #region reactive-params
// ReactiveParams are the thresholds and speeds of the reactive avoidance policy.
type ReactiveParams struct {
	DriveSpeed        int16 // mm/s
	ReorientSpeed     int16 // mm/s
	AvoidDistance     int32 // mm backed up before reorienting
	ReorientTolerance int32 // deg
}

// DefaultReactiveParams returns the values the controller shipped with.
func DefaultReactiveParams() ReactiveParams {
	return ReactiveParams{
		DriveSpeed:        200,
		ReorientSpeed:     75,
		AvoidDistance:     250,
		ReorientTolerance: 2,
	}
}

// #endregion reactive-params

// #region reactive
// Reactive drives straight, backs away from bumps, wheel-drops and cliffs with a
// turn bias, then rotates back to the heading it had when the obstacle appeared.
type Reactive struct {
	params ReactiveParams
	rules  []Rule
}

// NewReactive builds a reactive policy.
func NewReactive(params ReactiveParams) *Reactive {
	r := &Reactive{params: params}
	r.rules = r.buildRules()
	return r
}

// Params returns the policy's configuration.
func (r *Reactive) Params() ReactiveParams { return r.params }

func (r *Reactive) Name() string { return "reactive" }

func (r *Reactive) InitialRunState() State { return StateDrive }

func (r *Reactive) StateName(s State) (string, bool) {
	switch s {
	case StateDrive:
		return "DRIVE", true
	case StateAvoid:
		return "AVOID", true
	case StateReorient:
		return "REORIENT", true
	}
	return "", false
}

func (r *Reactive) Rules() []Rule { return r.rules }

func (r *Reactive) buildRules() []Rule {
	inAvoid := inState(StateAvoid)
	inReorient := inState(StateReorient)

	return []Rule{
		{
			// Continuous contact keeps restarting the backup distance. Heading and
			// side are captured once, when avoidance begins.
			Name:  "obstacle",
			Guard: func(_ Context, in Inputs) bool { return in.Sensors.Obstacle() },
			Fire: func(c Context, in Inputs) Context {
				c.ManeuverStartDistance = in.Odometry.NetDistance
				if c.State != StateAvoid {
					c.ManeuverStartAngle = in.Odometry.NetAngle
					c.ObstacleDirection = DirectionRight
					if in.Sensors.ObstacleLeft() {
						c.ObstacleDirection = DirectionLeft
					}
				}
				return goTo(c, StateAvoid)
			},
		},
		{
			// The angle baseline is the heading to restore, so only distance re-baselines.
			Name: "avoid-complete",
			Guard: func(c Context, in Inputs) bool {
				return inAvoid(c) && c.DistanceProgress(in.Odometry) >= r.params.AvoidDistance
			},
			Fire: func(c Context, in Inputs) Context {
				c.ManeuverStartDistance = in.Odometry.NetDistance
				return goTo(c, StateReorient)
			},
		},
		{
			Name: "reoriented",
			Guard: func(c Context, in Inputs) bool {
				return inReorient(c) && c.AngleProgress(in.Odometry) <= r.params.ReorientTolerance
			},
			Fire: func(c Context, in Inputs) Context {
				return goTo(c.snapshot(in.Odometry), StateDrive)
			},
		},
	}
}

func (r *Reactive) Action(c Context, in Inputs) (WheelSpeeds, bool) {
	drive := r.params.DriveSpeed
	switch c.State {
	case StateDrive:
		return Both(drive), true
	case StateAvoid:
		near := -(drive >> 4)
		if c.ObstacleDirection == DirectionLeft {
			return WheelSpeeds{Left: -drive, Right: near}, true
		}
		return WheelSpeeds{Left: near, Right: -drive}, true
	case StateReorient:
		spin := r.params.ReorientSpeed
		if c.ManeuverStartAngle-in.Odometry.NetAngle > 0 {
			return WheelSpeeds{Left: -spin, Right: spin}, true
		}
		return WheelSpeeds{Left: spin, Right: -spin}, true
	}
	return Stopped, false
}

// #endregion reactive

var _ Policy = (*Reactive)(nil)
