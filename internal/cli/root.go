package cli

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/neo-risk-etl/internal/config"
	"github.com/couchcryptid/neo-risk-etl/internal/observability"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root pre-run has loaded
// configuration.
type app struct {
	envFile string

	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRootCmd creates the neo root command with its subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "neo",
		Short: "Near-Earth-object close-approach ETL",
		Long: `neo pulls near-Earth-object close approaches from the NASA NeoWs feed,
derives mass and kinetic energy for each object, and tags every approach with a
simple risk category.

Configuration is read from the environment (and a .env file if present).
NASA_API_KEY is required by fetch.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to a .env file loaded before reading the environment")

	cmd.AddCommand(newFetchCmd(a), newRiskCmd(a))
	return cmd
}

func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(a.logger)
	a.metrics = observability.NewMetrics()
	return nil
}

// pushMetrics sends the run's metrics to the Pushgateway, if one is
// configured. A failed push is logged and does not fail the run.
func (a *app) pushMetrics(job string) {
	if !a.cfg.PushEnabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.metrics.Push(ctx, a.cfg.PushgatewayURL, job); err != nil {
		a.logger.Warn("metrics push failed", "error", err)
		return
	}
	a.logger.Debug("metrics pushed", "job", job)
}
