package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/metrics"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/simulation"
)

// #region simulate
func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	noRecord, _ := cmd.Flags().GetBool("no-record")

	m := metrics.New()
	var rec *runlog.Recorder
	if !noRecord {
		store, err := runlog.NewStore(cfg.DB)
		if err != nil {
			return fmt.Errorf("open run log: %w", err)
		}
		defer store.Close()
		run, err := store.CreateRun(policy.Name(), true, cfg.JSON())
		if err != nil {
			return err
		}
		defer store.FinishRun(run.RunID)
		rec = runlog.NewRecorder(store, run.RunID, policy)
		log = log.With("run_id", run.RunID)
	}

	observe := func(seq int, in nav.Inputs, res nav.StepResult) {
		m.Observe(policy, res)
		if t := res.Transition; t != nil {
			log.Debug("transition",
				"seq", seq,
				"from", nav.StateName(policy, t.From),
				"to", nav.StateName(policy, t.To),
				"rule", t.Rule,
			)
		}
		if rec == nil {
			return
		}
		if err := rec.Record(int64(seq), in, res); err != nil {
			m.Error("record")
			log.Error("record cycle", "seq", seq, "err", err)
		}
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error("metrics server", "err", err)
			}
		}()
	}

	log.Info("simulator bridge started", "policy", policy.Name())
	err = simulation.Bridge(ctx, simulation.NewAdapter(policy), os.Stdin, os.Stdout, observe)
	log.Info("simulator bridge stopped", "err", err)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// #endregion simulate
