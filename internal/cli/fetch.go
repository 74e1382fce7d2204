package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/neo-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/neo-risk-etl/internal/adapter/neows"
	"github.com/couchcryptid/neo-risk-etl/internal/adapter/table"
	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/couchcryptid/neo-risk-etl/internal/pipeline"
	"github.com/spf13/cobra"
)

// maxWindow is the longest start-to-end span NeoWs accepts in one feed call.
const maxWindow = 7 * 24 * time.Hour

type fetchOptions struct {
	start  string
	end    string
	out    string
	sample int
}

// fetchRequest is a fully resolved fetch invocation.
type fetchRequest struct {
	start  time.Time
	end    time.Time
	out    string
	sample int
}

func newFetchCmd(a *app) *cobra.Command {
	var opts fetchOptions
	cmd := &cobra.Command{
		Use:   "fetch [START [END]] [OUTPUT]",
		Short: "Fetch close approaches for a date window",
		Long: `Fetch close approaches from the NeoWs feed for START..END (YYYY-MM-DD,
inclusive, at most seven days apart) and flatten them into one row per object.

START defaults to yesterday (UTC) and END defaults to START. Without an output
file a sample of the rows is printed as JSON. An output ending in .xlsx is
written as an Excel workbook, anything else as CSV. When KAFKA_BROKERS is set
the rows are also published to KAFKA_TOPIC.

Examples:
  # Print a sample of yesterday's approaches
  neo fetch

  # Save one day as CSV
  neo fetch 2025-05-30 neo_20250530.csv

  # Save a three-day window as a workbook
  neo fetch --start 2025-05-28 --end 2025-05-30 --out neo.xlsx`,
		Args: cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := resolveFetchRequest(args, opts)
			if err != nil {
				return err
			}
			return a.runFetch(cmd.Context(), cmd.OutOrStdout(), req)
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "First date of the window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.end, "end", "", "Last date of the window (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output table (.csv or .xlsx)")
	cmd.Flags().IntVar(&opts.sample, "sample", 2, "Rows to print when no output file is given")
	return cmd
}

// resolveFetchRequest merges positional arguments and flags; flags win. A lone
// argument, or a second argument, that looks like a table file is taken as
// the output path.
func resolveFetchRequest(args []string, opts fetchOptions) (fetchRequest, error) {
	var startArg, endArg, out string
	switch {
	case len(args) == 1 && isTablePath(args[0]):
		out = args[0]
	case len(args) == 2 && isTablePath(args[1]):
		startArg, out = args[0], args[1]
	default:
		if len(args) > 0 {
			startArg = args[0]
		}
		if len(args) > 1 {
			endArg = args[1]
		}
		if len(args) > 2 {
			out = args[2]
		}
	}
	if opts.start != "" {
		startArg = opts.start
	}
	if opts.end != "" {
		endArg = opts.end
	}
	if opts.out != "" {
		out = opts.out
	}
	if opts.sample < 0 {
		return fetchRequest{}, errors.New("--sample must not be negative")
	}

	start := domain.Yesterday()
	if startArg != "" {
		d, err := parseDate("START", startArg)
		if err != nil {
			return fetchRequest{}, err
		}
		start = d
	}
	end := start
	if endArg != "" {
		d, err := parseDate("END", endArg)
		if err != nil {
			return fetchRequest{}, err
		}
		end = d
	}

	switch {
	case end.Before(start):
		return fetchRequest{}, fmt.Errorf("END %s is before START %s", end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	case end.Sub(start) > maxWindow:
		return fetchRequest{}, fmt.Errorf("window %s..%s is longer than NeoWs allows (7 days)", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	}

	return fetchRequest{start: start, end: end, out: out, sample: opts.sample}, nil
}

func parseDate(name, s string) (time.Time, error) {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q is not a YYYY-MM-DD date", name, s)
	}
	return d, nil
}

func isTablePath(s string) bool {
	switch strings.ToLower(filepath.Ext(s)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

func (a *app) runFetch(ctx context.Context, w io.Writer, req fetchRequest) error {
	if err := a.cfg.LoadFeed(); err != nil {
		return err
	}
	defer a.pushMetrics("neo_fetch")

	client := neows.NewClient(a.cfg.NASAAPIKey, a.cfg.FeedURL, a.cfg.HTTPTimeout, a.metrics, a.logger)

	var loaders []pipeline.BatchLoader
	if req.out != "" {
		loaders = append(loaders, table.NewFileSink(req.out, a.metrics, a.logger))
	}
	if a.cfg.KafkaEnabled() {
		writer := kafka.NewWriter(a.cfg, a.metrics, a.logger)
		defer func() {
			if err := writer.Close(); err != nil {
				a.logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
	}

	records, err := pipeline.NewIngest(client, loaders, a.logger, a.metrics).Run(ctx, req.start, req.end)
	if err != nil {
		return err
	}

	switch {
	case len(records) == 0:
		fmt.Fprintln(w, "No data, nothing to save")
	case req.out != "":
		fmt.Fprintf(w, "Saved %d rows to %s\n", len(records), req.out)
	default:
		return printSample(w, records, req.sample)
	}
	return nil
}

func printSample(w io.Writer, records []domain.ObjectApproachRecord, n int) error {
	n = min(n, len(records))
	data, err := json.MarshalIndent(records[:n], "", "  ")
	if err != nil {
		return fmt.Errorf("format sample: %w", err)
	}
	fmt.Fprintln(w, string(data))
	fmt.Fprintf(w, "(showing %d of %d rows; pass an output file to save all)\n", n, len(records))
	return nil
}
