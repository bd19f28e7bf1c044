package nav

import (
	"testing"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

func reactiveAt(state State, dist, angle int32) (*Reactive, Context) {
	p := NewReactive(DefaultReactiveParams())
	c := NewContext(p)
	c.State = state
	c.ManeuverStartDistance = dist
	c.ManeuverStartAngle = angle
	return p, c
}

func TestReactive_BumpLeftAvoidsThenReorients(t *testing.T) {
	p := NewReactive(DefaultReactiveParams())
	sc := armed(t, p)
	bumpLeft := sensors.Snapshot{BumpLeft: true}

	// 1. Contact while driving enters Avoid with the left latch.
	res := sc.Step(at(0, 0, bumpLeft))
	if res.Context.State != StateAvoid {
		t.Fatalf("expected AVOID, got %s", sc.StateName())
	}
	if res.Context.ObstacleDirection != DirectionLeft {
		t.Fatalf("expected LEFT, got %s", res.Context.ObstacleDirection)
	}
	if res.Speeds != (WheelSpeeds{Left: -200, Right: -12}) {
		t.Fatalf("expected (-200,-12), got %+v", res.Speeds)
	}

	// 2. Continued contact restarts the backup distance but keeps the heading.
	res = sc.Step(at(-100, 3, bumpLeft))
	if res.Context.ManeuverStartDistance != -100 {
		t.Fatalf("expected distance re-snapshot at -100, got %d", res.Context.ManeuverStartDistance)
	}
	if res.Context.ManeuverStartAngle != 0 {
		t.Fatalf("expected angle baseline kept at 0, got %d", res.Context.ManeuverStartAngle)
	}

	// 3. One short of the avoid distance stays in Avoid.
	res = sc.Step(at(-349, 3, idle))
	if res.Context.State != StateAvoid {
		t.Fatalf("expected AVOID at 249mm, got %s", sc.StateName())
	}

	// 4. Exactly the avoid distance moves to Reorient.
	res = sc.Step(at(-350, 3, idle))
	if res.Context.State != StateReorient {
		t.Fatalf("expected REORIENT at 250mm, got %s", sc.StateName())
	}
	if res.Transition == nil || res.Transition.Rule != "avoid-complete" {
		t.Fatalf("expected avoid-complete, got %+v", res.Transition)
	}
	if res.Context.ManeuverStartDistance != -350 || res.Context.ManeuverStartAngle != 0 {
		t.Fatalf("unexpected snapshots %d/%d", res.Context.ManeuverStartDistance, res.Context.ManeuverStartAngle)
	}
}

func TestReactive_RightObstacle(t *testing.T) {
	cases := []struct {
		name string
		s    sensors.Snapshot
	}{
		{"bump right", sensors.Snapshot{BumpRight: true}},
		{"cliff front right", sensors.Snapshot{CliffFrontRight: true}},
		{"wheeldrop right", sensors.Snapshot{WheeldropRight: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, c := reactiveAt(StateDrive, 0, 0)
			res := Evaluate(p, c, at(10, 5, tc.s))
			if res.Context.State != StateAvoid {
				t.Fatalf("expected AVOID, got %s", StateName(p, res.Context.State))
			}
			if res.Context.ObstacleDirection != DirectionRight {
				t.Fatalf("expected RIGHT, got %s", res.Context.ObstacleDirection)
			}
			if res.Speeds != (WheelSpeeds{Left: -12, Right: -200}) {
				t.Fatalf("expected (-12,-200), got %+v", res.Speeds)
			}
			if res.Context.ManeuverStartDistance != 10 || res.Context.ManeuverStartAngle != 5 {
				t.Fatalf("expected snapshot 10/5, got %d/%d", res.Context.ManeuverStartDistance, res.Context.ManeuverStartAngle)
			}
		})
	}
}

func TestReactive_DirectionLatchedOncePerAvoid(t *testing.T) {
	p, c := reactiveAt(StateAvoid, 0, 0)
	c.ObstacleDirection = DirectionLeft

	res := Evaluate(p, c, at(-20, -4, sensors.Snapshot{BumpRight: true}))
	if res.Context.ObstacleDirection != DirectionLeft {
		t.Fatalf("expected latch to stay LEFT, got %s", res.Context.ObstacleDirection)
	}
	if res.Context.ManeuverStartAngle != 0 {
		t.Fatalf("expected angle baseline 0, got %d", res.Context.ManeuverStartAngle)
	}
	if res.Context.ManeuverStartDistance != -20 {
		t.Fatalf("expected distance baseline -20, got %d", res.Context.ManeuverStartDistance)
	}
}

func TestReactive_ReorientSpinDirection(t *testing.T) {
	p, c := reactiveAt(StateReorient, 0, 0)

	res := Evaluate(p, c, at(0, 30, idle))
	if res.Speeds != (WheelSpeeds{Left: 75, Right: -75}) {
		t.Fatalf("heading above start: expected (75,-75), got %+v", res.Speeds)
	}
	res = Evaluate(p, c, at(0, -30, idle))
	if res.Speeds != (WheelSpeeds{Left: -75, Right: 75}) {
		t.Fatalf("heading below start: expected (-75,75), got %+v", res.Speeds)
	}
}

func TestReactive_ReorientWithinTolerance(t *testing.T) {
	for _, angle := range []int32{-2, 0, 2} {
		p, c := reactiveAt(StateReorient, -350, 0)
		res := Evaluate(p, c, at(-350, angle, idle))
		if res.Context.State != StateDrive {
			t.Fatalf("angle %d: expected DRIVE, got %s", angle, StateName(p, res.Context.State))
		}
		if res.Speeds != Both(200) {
			t.Fatalf("angle %d: expected (200,200), got %+v", angle, res.Speeds)
		}
		if res.Context.ManeuverStartAngle != angle {
			t.Fatalf("angle %d: expected full snapshot, got %d", angle, res.Context.ManeuverStartAngle)
		}
	}

	p, c := reactiveAt(StateReorient, 0, 0)
	if res := Evaluate(p, c, at(0, 3, idle)); res.Context.State != StateReorient {
		t.Fatalf("expected REORIENT outside tolerance, got %s", StateName(p, res.Context.State))
	}
}

func TestReactive_ObstacleDuringReorient(t *testing.T) {
	p, c := reactiveAt(StateReorient, -350, 0)
	res := Evaluate(p, c, at(-350, 40, sensors.Snapshot{CliffLeft: true}))
	if res.Context.State != StateAvoid {
		t.Fatalf("expected AVOID, got %s", StateName(p, res.Context.State))
	}
	if res.Context.ManeuverStartAngle != 40 {
		t.Fatalf("expected a fresh heading baseline of 40, got %d", res.Context.ManeuverStartAngle)
	}
	if res.Context.ObstacleDirection != DirectionLeft {
		t.Fatalf("expected LEFT, got %s", res.Context.ObstacleDirection)
	}
}

func TestReactive_CasterDropIgnored(t *testing.T) {
	p, c := reactiveAt(StateDrive, 0, 0)
	res := Evaluate(p, c, at(0, 0, sensors.Snapshot{WheeldropCaster: true}))
	if res.Transition != nil {
		t.Fatalf("unexpected transition %+v", res.Transition)
	}
}

func TestReactive_RuleOrder(t *testing.T) {
	want := []string{"obstacle", "avoid-complete", "reoriented"}
	rules := NewReactive(DefaultReactiveParams()).Rules()
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, r := range rules {
		if r.Name != want[i] {
			t.Errorf("rule %d: expected %s, got %s", i, want[i], r.Name)
		}
	}
}

func TestReactive_CustomParams(t *testing.T) {
	p := NewReactive(ReactiveParams{DriveSpeed: 320, ReorientSpeed: 50, AvoidDistance: 100, ReorientTolerance: 5})
	c := NewContext(p)
	c.State = StateAvoid
	c.ObstacleDirection = DirectionRight

	res := Evaluate(p, c, at(-99, 0, idle))
	if res.Speeds != (WheelSpeeds{Left: -20, Right: -320}) {
		t.Fatalf("expected (-20,-320), got %+v", res.Speeds)
	}
	if res = Evaluate(p, c, at(-100, 0, idle)); res.Context.State != StateReorient {
		t.Fatalf("expected REORIENT at 100mm, got %s", StateName(p, res.Context.State))
	}
}
