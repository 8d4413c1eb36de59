package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bucketfs/bucketfs/internal/logger"
	"github.com/bucketfs/bucketfs/internal/telemetry"
	"github.com/bucketfs/bucketfs/pkg/adminapi"
	"github.com/bucketfs/bucketfs/pkg/metricsx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the admin HTTP API",
	Long:  "Start the admin HTTP API, serving bucket registry management and health endpoints until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadedConfig()
		if err != nil {
			return err
		}

		if err := logger.Init(cfg.Logging); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if cfg.Telemetry.Enabled {
			shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
			if err != nil {
				return fmt.Errorf("init telemetry: %w", err)
			}
			defer func() { _ = shutdown(context.Background()) }()
		}

		if cfg.Metrics.Enabled {
			metricsx.InitRegistry()
		}

		reg, err := openRegistry(cfg)
		if err != nil {
			return err
		}

		server, err := adminapi.NewServer(cfg.AdminAPI, reg)
		if err != nil {
			return fmt.Errorf("init admin api: %w", err)
		}

		logger.Info("bucketfsctl serve starting", "port", server.Port())
		if err := server.Start(ctx); err != nil {
			return err
		}
		logger.Info("bucketfsctl serve stopped")
		return nil
	},
}
