// Package replay re-evaluates recorded or hand-written cycle sequences against a
// policy. The core is pure, so a replay reproduces the recorded run exactly; any
// divergence is reported per cycle.
package replay

import (
	"fmt"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
)

// #region types
// Cycle is one input frame with an optional expected outcome.
type Cycle struct {
	Inputs nav.Inputs
	Expect *Expectation
}

// Expectation is what a cycle should produce.
type Expectation struct {
	State  string
	Speeds nav.WheelSpeeds
}

// CycleResult captures the outcome of replaying one cycle.
type CycleResult struct {
	Seq       int
	StateName string
	Step      nav.StepResult
	Mismatch  string // empty when the cycle matched or had no expectation
}

// Matched reports whether the cycle met its expectation.
func (r CycleResult) Matched() bool { return r.Mismatch == "" }

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	TotalCycles  int
	Transitions  int
	Unmapped     int
	Mismatches   int
	RuleCounts   map[string]int
	FinalState   string
	FinalContext nav.Context
	FinalSpeeds  nav.WheelSpeeds
}

// #endregion types

// #region replay
// Replay evaluates cycles in order on a fresh statechart for p.
func Replay(p nav.Policy, cycles []Cycle) []CycleResult {
	return ReplayFrom(nav.New(p), cycles)
}

// ReplayFrom continues from an existing statechart.
func ReplayFrom(chart *nav.Statechart, cycles []Cycle) []CycleResult {
	results := make([]CycleResult, 0, len(cycles))
	for i, c := range cycles {
		step := chart.Step(c.Inputs)
		r := CycleResult{Seq: i, StateName: chart.StateName(), Step: step}
		if c.Expect != nil {
			r.Mismatch = compare(*c.Expect, r)
		}
		results = append(results, r)
	}
	return results
}

func compare(want Expectation, got CycleResult) string {
	if want.State != "" && want.State != got.StateName {
		return fmt.Sprintf("state: want %s, got %s", want.State, got.StateName)
	}
	if want.Speeds != got.Step.Speeds {
		return fmt.Sprintf("speeds: want (%d,%d), got (%d,%d)",
			want.Speeds.Left, want.Speeds.Right, got.Step.Speeds.Left, got.Step.Speeds.Right)
	}
	return ""
}

// #endregion replay

// #region summarize
// Summarize computes aggregate stats from replay results.
func Summarize(results []CycleResult) ReplaySummary {
	s := ReplaySummary{
		TotalCycles: len(results),
		RuleCounts:  make(map[string]int),
	}
	for _, r := range results {
		if r.Step.Transition != nil {
			s.Transitions++
			s.RuleCounts[r.Step.Transition.Rule]++
		}
		if r.Step.Unmapped {
			s.Unmapped++
		}
		if !r.Matched() {
			s.Mismatches++
		}
	}
	if n := len(results); n > 0 {
		last := results[n-1]
		s.FinalState = last.StateName
		s.FinalContext = last.Step.Context
		s.FinalSpeeds = last.Step.Speeds
	}
	return s
}

// #endregion summarize

// #region records
// FromRecords turns a recorded run into replay cycles that expect the recorded
// state and speeds.
func FromRecords(recs []runlog.CycleRecord) []Cycle {
	cycles := make([]Cycle, len(recs))
	for i, rec := range recs {
		cycles[i] = Cycle{
			Inputs: rec.Inputs,
			Expect: &Expectation{State: rec.StateName, Speeds: rec.Speeds},
		}
	}
	return cycles
}

// #endregion records
