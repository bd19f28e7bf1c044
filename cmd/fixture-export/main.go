package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/replay"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to irobot_nav.db")
	runID := flag.String("run", "", "run to export (default: most recent)")
	outPath := flag.String("out", "", "output fixture JSON path")
	flag.Parse()

	if *dbPath == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fixture-export --db path/to/db --out path/to/fixture.json [--run id]")
		os.Exit(2)
	}

	if err := run(*dbPath, *runID, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract

func run(dbPath, runID, outPath string) error {
	store, err := runlog.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	rec, err := findRun(store, runID)
	if err != nil {
		return fmt.Errorf("find run: %w", err)
	}

	cycles, err := store.Cycles(rec.RunID)
	if err != nil {
		return fmt.Errorf("read cycles: %w", err)
	}
	if len(cycles) == 0 {
		return fmt.Errorf("run %s has no recorded cycles", rec.RunID)
	}
	fmt.Printf("Found %d cycles in run %s\n", len(cycles), rec.RunID)

	fixture, err := replay.FixtureFromRun(rec, cycles)
	if err != nil {
		return err
	}
	return writeFixture(fixture, outPath)
}

func findRun(store *runlog.Store, runID string) (runlog.RunRecord, error) {
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

// #endregion extract

// #region output

func writeFixture(fixture *replay.Fixture, outPath string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	fmt.Printf("Wrote fixture to %s (%d bytes, %d cycles)\n", outPath, len(data), len(fixture.Cycles))
	return nil
}

// #endregion output
