package replay

import (
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// helper: a cycle at the given odometry with an expectation.
func expectCycle(dist int32, s sensors.Snapshot, state string, speeds nav.WheelSpeeds) Cycle {
	return Cycle{
		Inputs: nav.Inputs{Odometry: sensors.Odometry{NetDistance: dist}, Sensors: s},
		Expect: &Expectation{State: state, Speeds: speeds},
	}
}

// helper: the startup press/release sequence.
func startup() []Cycle {
	return []Cycle{
		expectCycle(0, sensors.Snapshot{}, "UNPAUSE_WAIT_PRESS", nav.Stopped),
		expectCycle(0, sensors.Snapshot{Play: true}, "UNPAUSE_WAIT_RELEASE", nav.Stopped),
		expectCycle(0, sensors.Snapshot{}, "DRIVE", nav.Both(200)),
	}
}

// 1. Matching expectations: no mismatches, rule counts tallied.
func TestReplay_Matches(t *testing.T) {
	results := Replay(nav.NewReactive(nav.DefaultReactiveParams()), startup())

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	s := Summarize(results)
	if s.Mismatches != 0 {
		t.Fatalf("expected no mismatches, got %d", s.Mismatches)
	}
	if s.Transitions != 3 {
		t.Errorf("expected 3 transitions, got %d", s.Transitions)
	}
	if s.RuleCounts["resume"] != 1 {
		t.Errorf("expected one resume, got %d", s.RuleCounts["resume"])
	}
	if s.FinalState != "DRIVE" || s.FinalSpeeds != nav.Both(200) {
		t.Errorf("unexpected final %s %+v", s.FinalState, s.FinalSpeeds)
	}
}

// 2. Wrong expected state is reported, replay continues.
func TestReplay_StateMismatch(t *testing.T) {
	cycles := startup()
	cycles[1].Expect.State = "DRIVE"

	results := Replay(nav.NewReactive(nav.DefaultReactiveParams()), cycles)
	if results[1].Matched() {
		t.Fatal("expected cycle 1 to mismatch")
	}
	if !results[2].Matched() {
		t.Fatalf("expected cycle 2 to match, got %s", results[2].Mismatch)
	}
	if Summarize(results).Mismatches != 1 {
		t.Fatal("expected exactly one mismatch")
	}
}

// 3. Wrong expected speeds are reported.
func TestReplay_SpeedMismatch(t *testing.T) {
	cycles := startup()
	cycles[2].Expect.Speeds = nav.Both(199)

	results := Replay(nav.NewReactive(nav.DefaultReactiveParams()), cycles)
	if results[2].Matched() {
		t.Fatal("expected cycle 2 to mismatch on speeds")
	}
}

// 4. Cycles without expectations always match.
func TestReplay_NoExpectation(t *testing.T) {
	cycles := []Cycle{{}, {}, {}}
	results := Replay(nav.NewReactive(nav.DefaultReactiveParams()), cycles)
	if s := Summarize(results); s.Mismatches != 0 || s.TotalCycles != 3 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

// 5. Replaying the same inputs twice yields identical results.
func TestReplay_Deterministic(t *testing.T) {
	cycles := append(startup(),
		expectCycle(100, sensors.Snapshot{CliffFrontLeft: true}, "AVOID", nav.WheelSpeeds{Left: -200, Right: -12}),
		expectCycle(-150, sensors.Snapshot{}, "REORIENT", nav.WheelSpeeds{Left: 75, Right: -75}),
	)
	p := nav.NewReactive(nav.DefaultReactiveParams())
	a, b := Replay(p, cycles), Replay(p, cycles)
	for i := range a {
		if a[i].Step.Context != b[i].Step.Context || a[i].Step.Speeds != b[i].Step.Speeds {
			t.Fatalf("cycle %d diverged between replays", i)
		}
	}
}

// 6. Empty input: zero summary.
func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalCycles != 0 || s.FinalState != "" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

// 7. A recorded run replays bit-for-bit.
func TestReplay_RecordedRun(t *testing.T) {
	store, err := runlog.NewStore(filepath.Join(t.TempDir(), "run.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	p := nav.NewReactive(nav.DefaultReactiveParams())
	run, err := store.CreateRun(p.Name(), true, "")
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	rec := runlog.NewRecorder(store, run.RunID, p)

	chart := nav.New(p)
	live := []nav.Inputs{
		{IsSimulator: true},
		{Sensors: sensors.Snapshot{Play: true}},
		{},
		{Odometry: sensors.Odometry{NetDistance: 80}, Sensors: sensors.Snapshot{WheeldropRight: true}},
		{Odometry: sensors.Odometry{NetDistance: -170, NetAngle: 12}},
		{Odometry: sensors.Odometry{NetDistance: -170, NetAngle: 1}},
	}
	for i, in := range live {
		if err := rec.Record(int64(i), in, chart.Step(in)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recs, err := store.Cycles(run.RunID)
	if err != nil {
		t.Fatalf("Cycles: %v", err)
	}
	results := Replay(p, FromRecords(recs))
	s := Summarize(results)
	if s.Mismatches != 0 {
		for _, r := range results {
			if !r.Matched() {
				t.Errorf("cycle %d: %s", r.Seq, r.Mismatch)
			}
		}
		t.Fatalf("expected bit-for-bit replay, got %d mismatches", s.Mismatches)
	}
	if s.FinalContext != chart.Context() {
		t.Fatalf("final context diverged: %+v vs %+v", s.FinalContext, chart.Context())
	}
}
