// Command navctl runs the navigation statechart against a Create over serial, against
// a simulator over stdio, or serves the Drive RPC service for a remote controller.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/config"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/logging"
)

// #region commands
var (
	configPath string
	policyName string

	rootCmd = &cobra.Command{
		Use:           "navctl",
		Short:         "Navigation controller for the iRobot Create",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Drive a robot over its serial link until advance is pressed or interrupted",
		RunE:  runRobot,
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Step the statechart from JSON frames on stdin, replying on stdout",
		RunE:  runSimulate,
	}

	driveServerCmd = &cobra.Command{
		Use:   "drive-server",
		Short: "Serve wheel commands from a remote controller to the local serial link",
		RunE:  runDriveServer,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&policyName, "policy", "", "override the configured policy (reactive|scripted)")
	simulateCmd.Flags().Bool("no-record", false, "do not write the run to the database")

	rootCmd.AddCommand(runCmd, simulateCmd, driveServerCmd)
}

// #endregion commands

// #region main
func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "navctl: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region helpers
// loadConfig reads --config and applies --policy.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if policyName != "" {
		cfg.PolicyName = policyName
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// newLogger writes text logs to w; simulate passes stderr so stdout stays a reply stream.
func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, io.Closer, error) {
	return logging.New(w, logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
}

// #endregion helpers
