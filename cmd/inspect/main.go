package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/logging"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to irobot_nav.db")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	cycles := flag.Bool("cycles", false, "include every cycle in run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/irobot_nav.db [--last N] [--run id [--cycles]] [--json]")
		os.Exit(2)
	}

	store, err := runlog.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *cycles, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string `json:"run_id"`
	Policy    string `json:"policy"`
	Simulated bool   `json:"simulated"`
	Cycles    int64  `json:"cycles"`
	StartedAt string `json:"started_at"`
	Duration  string `json:"duration,omitempty"`
}

func runListMode(store *runlog.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns DESC, reverse for chronological
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = toListRow(r)
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-9s  %-4s  %8s  %-10s  %s\n", "Run", "Policy", "Sim", "Cycles", "Duration", "Started")
	fmt.Printf("%-10s+-%-9s+-%-4s+-%8s+-%-10s+-%s\n",
		"----------", "---------", "----", "--------", "----------", "--------------------")
	for _, r := range rows {
		sim := "no"
		if r.Simulated {
			sim = "yes"
		}
		dur := r.Duration
		if dur == "" {
			dur = "open"
		}
		fmt.Printf("%-10s  %-9s  %-4s  %8d  %-10s  %s\n", shortID(r.RunID), r.Policy, sim, r.Cycles, dur, r.StartedAt)
	}
	return nil
}

func toListRow(r runlog.RunRecord) listRow {
	row := listRow{
		RunID:     r.RunID,
		Policy:    r.Policy,
		Simulated: r.Simulated,
		Cycles:    r.Cycles,
		StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
	}
	if !r.EndedAt.IsZero() {
		row.Duration = r.EndedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
	}
	return row
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	listRow
	Config      json.RawMessage `json:"config,omitempty"`
	Transitions []transitionRow `json:"transitions"`
	Cycles      []cycleRow      `json:"cycles,omitempty"`
	RuleCounts  map[string]int  `json:"rule_counts"`
}

type transitionRow struct {
	Seq         int64  `json:"seq"`
	From        string `json:"from"`
	To          string `json:"to"`
	Rule        string `json:"rule"`
	Region      string `json:"region"`
	NetDistance int32  `json:"net_distance"`
	NetAngle    int32  `json:"net_angle"`
}

type cycleRow struct {
	Seq         int64  `json:"seq"`
	State       string `json:"state"`
	Left        int16  `json:"left"`
	Right       int16  `json:"right"`
	NetDistance int32  `json:"net_distance"`
	NetAngle    int32  `json:"net_angle"`
	Rule        string `json:"rule,omitempty"`
	Unmapped    bool   `json:"unmapped,omitempty"`
}

func runDetailMode(store *runlog.Store, runID string, withCycles, jsonOut bool) error {
	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	entries, err := store.Transitions(runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		listRow:     toListRow(run),
		Transitions: make([]transitionRow, len(entries)),
		RuleCounts:  make(map[string]int),
	}
	if run.ConfigJSON != "" && json.Valid([]byte(run.ConfigJSON)) {
		out.Config = json.RawMessage(run.ConfigJSON)
	}
	for i, e := range entries {
		out.Transitions[i] = toTransitionRow(e)
		out.RuleCounts[e.Rule]++
	}

	if withCycles {
		recs, err := store.Cycles(runID)
		if err != nil {
			return err
		}
		out.Cycles = make([]cycleRow, len(recs))
		for i, rec := range recs {
			out.Cycles[i] = cycleRow{
				Seq:         rec.Seq,
				State:       rec.StateName,
				Left:        rec.Speeds.Left,
				Right:       rec.Speeds.Right,
				NetDistance: rec.Inputs.Odometry.NetDistance,
				NetAngle:    rec.Inputs.Odometry.NetAngle,
				Rule:        rec.Rule,
				Unmapped:    rec.Unmapped,
			}
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", run.RunID)
	fmt.Printf("Policy:     %s\n", run.Policy)
	fmt.Printf("Simulated:  %v\n", run.Simulated)
	fmt.Printf("Started:    %s\n", out.StartedAt)
	if out.Duration != "" {
		fmt.Printf("Duration:   %s\n", out.Duration)
	}
	fmt.Printf("Cycles:     %d\n", run.Cycles)

	fmt.Printf("\nTransitions:\n")
	if len(out.Transitions) == 0 {
		fmt.Println("  (none)")
	}
	for _, t := range out.Transitions {
		fmt.Printf("  %6d  %-22s -> %-22s %-16s %-6s d=%d a=%d\n",
			t.Seq, t.From, t.To, t.Rule, t.Region, t.NetDistance, t.NetAngle)
	}

	fmt.Printf("\nRule counts:\n")
	for _, rule := range slices.Sorted(maps.Keys(out.RuleCounts)) {
		fmt.Printf("  %-16s %d\n", rule, out.RuleCounts[rule])
	}

	if withCycles {
		fmt.Printf("\nCycles:\n")
		for _, c := range out.Cycles {
			mark := ""
			if c.Unmapped {
				mark = " UNMAPPED"
			}
			fmt.Printf("  %6d  %-22s (%d,%d) d=%d a=%d %s%s\n",
				c.Seq, c.State, c.Left, c.Right, c.NetDistance, c.NetAngle, c.Rule, mark)
		}
	}
	return nil
}

func toTransitionRow(e logging.TransitionEntry) transitionRow {
	return transitionRow{
		Seq:         e.Seq,
		From:        e.FromState,
		To:          e.ToState,
		Rule:        e.Rule,
		Region:      e.Region,
		NetDistance: e.NetDistance,
		NetAngle:    e.NetAngle,
	}
}

// #endregion detail-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
