package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/garyjia/workflow-engine/internal/config"
	"github.com/garyjia/workflow-engine/internal/container"
	"github.com/garyjia/workflow-engine/pkg/utils"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "workflow-server",
		Usage:   "Define workflows and drive their instances over HTTP",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				Sources: cli.EnvVars("WORKFLOW_CONFIG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "storage-driver",
				Usage:   "Store to use (memory, sqlite)",
				Sources: cli.EnvVars("STORAGE_DRIVER"),
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "workflow-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	// Flags win over the file and WORKFLOW_* variables
	if cmd.IsSet("port") {
		cfg.Server.Port = cmd.Int("port")
	}
	if cmd.IsSet("log-level") {
		cfg.Logger.Level = cmd.String("log-level")
	}
	if cmd.IsSet("storage-driver") {
		cfg.Storage.Driver = cmd.String("storage-driver")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := utils.NewLogger(cfg.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting workflow service",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("storage_driver", cfg.Storage.Driver))

	app, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		logger.Error("Failed to start container", zap.Error(err))
		if closeErr := app.Close(); closeErr != nil {
			logger.Error("Failed to close container", zap.Error(closeErr))
		}
		return err
	}

	runErr := app.Run(ctx)
	if runErr != nil {
		logger.Error("HTTP server failed", zap.Error(runErr))
	}

	if err := app.Close(); err != nil {
		logger.Error("Failed to close container", zap.Error(err))
	}

	logger.Info("Server exited")
	return runErr
}
