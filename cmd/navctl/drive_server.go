package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/drive"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/irobot"
)

// #region drive-server
func runDriveServer(cmd *cobra.Command, _ []string) error {
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

	lis, err := net.Listen("tcp", cfg.Drive.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Drive.Listen, err)
	}
	srv := grpc.NewServer()
	drive.Register(srv, conn)

	log.Info("drive server listening", "addr", lis.Addr().String(), "port", cfg.Serial.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(lis) })
	g.Go(func() error {
		<-gctx.Done()
		srv.GracefulStop()
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("drive server: %w", err)
	}
	log.Info("drive server stopped")
	return nil
}

// #endregion drive-server
