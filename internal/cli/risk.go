package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/couchcryptid/neo-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/neo-risk-etl/internal/adapter/table"
	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/couchcryptid/neo-risk-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

func newRiskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "risk INPUT [OUTPUT]",
		Short: "Tag every row of a fetched table with a risk category",
		Long: `Read a CSV table written by fetch, add palermo_proxy and risk_cluster to
every row, print the number of rows per category and write the table back.
OUTPUT defaults to INPUT. An OUTPUT ending in .xlsx is written as a workbook.

Examples:
  # Tag in place
  neo risk neo_20250530.csv

  # Keep the input and write a workbook
  neo risk neo_20250530.csv neo_20250530_risk.xlsx`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[0]
			if len(args) == 2 {
				out = args[1]
			}
			return a.runRisk(cmd.Context(), cmd.OutOrStdout(), in, out)
		},
	}
}

func (a *app) runRisk(ctx context.Context, w io.Writer, in, out string) error {
	defer a.pushMetrics("neo_risk")

	loaders := []pipeline.BatchLoader{table.NewFileSink(out, a.metrics, a.logger)}
	if a.cfg.KafkaEnabled() {
		writer := kafka.NewWriter(a.cfg, a.metrics, a.logger)
		defer func() {
			if err := writer.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
	}

	summary, err := pipeline.NewRisk(table.NewBaseFileSource(in), loaders, a.logger, a.metrics).Run(ctx)
	if err != nil {
		return err
	}

	printSummary(w, summary)
	fmt.Fprintf(w, "Enriched table saved to %s\n", out)
	return nil
}

// printSummary lists the categories that occur, most severe first.
func printSummary(w io.Writer, summary domain.RiskSummary) {
	fmt.Fprintln(w, "Cluster counts:")
	for _, c := range domain.RiskCategories {
		if n, ok := summary[c]; ok {
			fmt.Fprintf(w, "  %-6s %d\n", c, n)
		}
	}
}
