package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nebulafleet.dev/cmd/agent/daemon"
)

var devMode bool

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single reconcile cycle and exit",
	Long: `Ensure a keypair exists, fetch the current config from the control
plane, write it to disk if it changed, and exit. Does not supervise the
Nebula process.`,
	RunE: runOnce,
}

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Run the reconcile cycle on a fixed interval",
	Long:  `Run the reconcile cycle every poll_interval_hours until terminated. Does not supervise the Nebula process.`,
	RunE:  runLoop,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the reconcile loop alongside the Nebula process supervisor",
	Long: `Run the reconcile loop and a background supervisor thread together.
The supervisor restarts Nebula on crash or on config drift, with
exponential backoff and a consecutive-failure ceiling. The Nebula process
is stopped when the agent shuts down; it does not outlive the agent.`,
	RunE: runMonitor,
}

func init() {
	for _, c := range []*cobra.Command{onceCmd, loopCmd, monitorCmd} {
		c.Flags().BoolVar(&devMode, "dev", false, "enable development mode (console logging instead of JSON)")
		rootCmd.AddCommand(c)
	}
}

func loadAgent() (*daemon.AgentConfig, *zap.Logger, error) {
	logger, err := initLogger(devMode)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	config, err := daemon.LoadConfig()
	if err != nil {
		logger.Error("failed to load agent configuration", zap.Error(err))
		return nil, logger, err
	}

	return config, logger, nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	config, logger, err := loadAgent()
	if err != nil {
		return err
	}
	defer logger.Sync()

	runner, err := daemon.NewRunner(config, logger)
	if err != nil {
		return err
	}

	if err := runner.RunOnce(context.Background(), nil); err != nil {
		logger.Error("reconcile cycle failed", zap.Error(err))
		return err
	}
	return nil
}

func runLoop(cmd *cobra.Command, args []string) error {
	config, logger, err := loadAgent()
	if err != nil {
		return err
	}
	defer logger.Sync()

	runner, err := daemon.NewRunner(config, logger)
	if err != nil {
		return err
	}

	return runner.RunLoop(context.Background(), nil)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	config, logger, err := loadAgent()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("nebulafleet agent starting in monitor mode",
		zap.String("version", Version),
		zap.String("server", config.ServerURL))

	runner, err := daemon.NewRunner(config, logger)
	if err != nil {
		return err
	}

	return runner.RunMonitor(context.Background())
}

func initLogger(devMode bool) (*zap.Logger, error) {
	var config zap.Config

	if devMode {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	return config.Build()
}
