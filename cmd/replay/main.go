package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/replay"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to irobot_nav.db (DB mode)")
	runID := flag.String("run", "", "run to replay in DB mode (default: most recent)")
	fixturePath := flag.String("fixture", "", "path to fixture JSON (fixture mode)")
	quiet := flag.Bool("quiet", false, "only print mismatching cycles and the summary")
	flag.Parse()

	if (*dbPath == "" && *fixturePath == "") || (*dbPath != "" && *fixturePath != "") {
		fmt.Fprintln(os.Stderr, "usage: replay --db path/to/irobot_nav.db [--run id]")
		fmt.Fprintln(os.Stderr, "       replay --fixture path/to/fixture.json")
		os.Exit(2)
	}

	var exitCode int
	if *fixturePath != "" {
		exitCode = runFixtureMode(*fixturePath, *quiet)
	} else {
		exitCode = runDBMode(*dbPath, *runID, *quiet)
	}
	os.Exit(exitCode)
}

// #endregion main

// #region db-mode

func runDBMode(dbPath, runID string, quiet bool) int {
	store, err := runlog.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		return 2
	}
	defer store.Close()

	run, err := pickRun(store, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "find run: %v\n", err)
		return 2
	}

	recs, err := store.Cycles(run.RunID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read cycles: %v\n", err)
		return 2
	}
	if len(recs) == 0 {
		fmt.Fprintf(os.Stderr, "run %s has no recorded cycles\n", run.RunID)
		return 2
	}

	// The exported fixture carries the run's policy parameters and its recorded
	// decisions as expectations.
	f, err := replay.FixtureFromRun(run, recs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build fixture: %v\n", err)
		return 2
	}
	p, err := f.Policy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build policy: %v\n", err)
		return 2
	}

	fmt.Printf("Run %s (%s, %d cycles)\n\n", run.RunID, run.Policy, len(recs))
	return printComparison(p, f.ToCycles(), quiet)
}

func pickRun(store *runlog.Store, runID string) (runlog.RunRecord, error) {
	if runID != "" {
		return store.GetRun(runID)
	}
	runs, err := store.ListRuns(1)
	if err != nil {
		return runlog.RunRecord{}, err
	}
	if len(runs) == 0 {
		return runlog.RunRecord{}, runlog.ErrRunNotFound
	}
	return runs[0], nil
}

// #endregion db-mode

// #region output

func runFixtureMode(path string, quiet bool) int {
	f, err := replay.LoadFixture(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		return 2
	}
	p, err := f.Policy()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build policy: %v\n", err)
		return 2
	}
	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}
	return printComparison(p, f.ToCycles(), quiet)
}

// printComparison replays cycles, prints one row per cycle and returns the exit code.
func printComparison(p nav.Policy, cycles []replay.Cycle, quiet bool) int {
	results := replay.Replay(p, cycles)

	fmt.Printf("%-6s| %-22s| %-22s| %-12s| %s\n", "Seq", "Expected", "Replayed", "Speeds", "Match")
	fmt.Printf("%-6s+%-23s+%-23s+%-13s+%s\n",
		"------", "-----------------------", "-----------------------", "-------------", "------")

	for i, r := range results {
		exp := "-"
		if e := cycles[i].Expect; e != nil {
			exp = e.State
		}
		match := "OK"
		if !r.Matched() {
			match = "DIFF " + r.Mismatch
		} else if quiet {
			continue
		}
		speeds := fmt.Sprintf("(%d,%d)", r.Step.Speeds.Left, r.Step.Speeds.Right)
		fmt.Printf("%-6d| %-22s| %-22s| %-12s| %s\n", r.Seq, exp, r.StateName, speeds, match)
	}

	s := replay.Summarize(results)
	fmt.Printf("\nSummary: %d cycles, %d transitions, %d unmapped, %d diverge\n",
		s.TotalCycles, s.Transitions, s.Unmapped, s.Mismatches)
	fmt.Printf("Final: %s (%d,%d)\n", s.FinalState, s.FinalSpeeds.Left, s.FinalSpeeds.Right)

	if s.Mismatches > 0 {
		return 1
	}
	return 0
}

// #endregion output
