package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/config"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/control"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/drive"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/irobot"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/metrics"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
)

// #region run
func runRobot(cmd *cobra.Command, _ []string) error {
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
	mode, err := irobot.ParseMode(cfg.Serial.Mode)
	if err != nil {
		return err
	}

	conn, err := irobot.Open(cfg.Serial.Port, cfg.Serial.Baud)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := conn.Start(ctx, mode); err != nil {
		return err
	}

	act, closeAct, err := actuator(cfg, conn)
	if err != nil {
		return err
	}
	defer closeAct()

	store, err := runlog.NewStore(cfg.DB)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer store.Close()
	run, err := store.CreateRun(policy.Name(), false, cfg.JSON())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.FinishRun(run.RunID); err != nil {
			log.Error("finish run", "run_id", run.RunID, "err", err)
		}
	}()

	m := metrics.New()
	loop := control.New(nav.New(policy), conn, act,
		control.WithRecorder(runlog.NewRecorder(store, run.RunID, policy)),
		control.WithObserver(m),
		control.WithLogger(log.With("run_id", run.RunID)),
		control.WithPeriod(cfg.Period),
		control.WithAlpha(cfg.Accel.Alpha),
	)

	log.Info("run started",
		"run_id", run.RunID,
		"policy", policy.Name(),
		"port", cfg.Serial.Port,
		"mode", mode.String(),
		"db", cfg.DB,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The loop ending on advance also shuts the metrics server down.
		defer stop()
		return loop.Run(gctx)
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error { return m.Serve(gctx, cfg.Metrics.Addr) })
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("run finished", "run_id", run.RunID)
	return nil
}

// actuator picks the local serial link, or a remote Drive service when drive.addr is
// configured. The serial link still supplies sensors either way.
func actuator(cfg config.Config, local *irobot.Conn) (control.Actuator, func(), error) {
	if cfg.Drive.Addr == "" {
		return local, func() {}, nil
	}
	c, err := drive.NewClient(cfg.Drive.Addr)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Close() }, nil
}

// #endregion run
