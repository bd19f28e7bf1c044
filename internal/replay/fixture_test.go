package replay

import (
	"path/filepath"
	"testing"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// #region fixture-tests

// runFixture loads a fixture, replays it and fails on any mismatch. These are the
// primary regression tests: a change to thresholds or rule order shows up here.
func runFixture(t *testing.T, name string) ReplaySummary {
	t.Helper()
	f, err := LoadFixture(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	p, err := f.Policy()
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}

	results := Replay(p, f.ToCycles())
	if len(results) != len(f.Cycles) {
		t.Fatalf("expected %d results, got %d", len(f.Cycles), len(results))
	}
	for _, r := range results {
		if !r.Matched() {
			t.Errorf("cycle %d: %s", r.Seq, r.Mismatch)
		}
	}
	return Summarize(results)
}

func TestFixture_ReactiveAvoid(t *testing.T) {
	s := runFixture(t, "reactive_avoid.json")
	if s.RuleCounts["obstacle"] != 1 || s.RuleCounts["avoid-complete"] != 1 || s.RuleCounts["reoriented"] != 1 {
		t.Errorf("unexpected rule counts %v", s.RuleCounts)
	}
	if s.FinalState != "DRIVE" {
		t.Errorf("expected final DRIVE, got %s", s.FinalState)
	}
}

func TestFixture_ScriptedLegs(t *testing.T) {
	s := runFixture(t, "scripted_legs.json")
	if s.RuleCounts["trigger"] != 1 {
		t.Errorf("expected one trigger, got %d", s.RuleCounts["trigger"])
	}
	if s.RuleCounts["script-complete"] != 1 {
		t.Errorf("expected one script-complete, got %d", s.RuleCounts["script-complete"])
	}
	if s.FinalSpeeds != nav.Stopped {
		t.Errorf("expected stopped after completion, got %+v", s.FinalSpeeds)
	}
}

func TestLoadFixture_Missing(t *testing.T) {
	if _, err := LoadFixture(filepath.Join("testdata", "absent.json")); err == nil {
		t.Fatal("expected error for a missing fixture")
	}
}

func TestFixture_UnknownPolicy(t *testing.T) {
	f := &Fixture{PolicyName: "wander"}
	if _, err := f.Policy(); err == nil {
		t.Fatal("expected error for an unknown policy")
	}
}

func TestFixtureFromRun(t *testing.T) {
	run := runlog.RunRecord{RunID: "r1", Policy: "reactive", ConfigJSON: `{"reactive":{"drive_speed":150,"reorient_speed":60,"avoid_distance":100,"reorient_tolerance":3}}`}
	recs := []runlog.CycleRecord{
		{Inputs: nav.Inputs{IsSimulator: true}, StateName: "UNPAUSE_WAIT_PRESS"},
		{Inputs: nav.Inputs{Sensors: sensors.Snapshot{Play: true}}, StateName: "UNPAUSE_WAIT_RELEASE"},
		{Inputs: nav.Inputs{}, StateName: "DRIVE", Speeds: nav.Both(150)},
	}

	f, err := FixtureFromRun(run, recs)
	if err != nil {
		t.Fatalf("FixtureFromRun: %v", err)
	}
	if f.Reactive == nil || f.Reactive.DriveSpeed != 150 {
		t.Fatalf("expected recorded reactive config, got %+v", f.Reactive)
	}
	p, err := f.Policy()
	if err != nil {
		t.Fatalf("Policy: %v", err)
	}
	s := Summarize(Replay(p, f.ToCycles()))
	if s.Mismatches != 0 {
		t.Fatalf("expected exported fixture to replay cleanly, got %d mismatches", s.Mismatches)
	}
}

// #endregion fixture-tests
