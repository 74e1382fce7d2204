package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/couchcryptid/neo-risk-etl/internal/observability"
)

// Ingest fetches a feed window, flattens it into records and hands the table
// to every loader in order.
type Ingest struct {
	extractor FeedExtractor
	loaders   []BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewIngest creates an Ingest step. With no loaders the records are only
// returned to the caller.
func NewIngest(e FeedExtractor, loaders []BatchLoader, logger *slog.Logger, metrics *observability.Metrics) *Ingest {
	return &Ingest{
		extractor: e,
		loaders:   loaders,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the step for [start, end] and returns the flattened records.
// An empty window is not an error; nothing is loaded.
func (p *Ingest) Run(ctx context.Context, start, end time.Time) ([]domain.ObjectApproachRecord, error) {
	began := time.Now()
	records, err := p.run(ctx, start, end)
	p.metrics.ObserveStep(StepFetch, began, time.Now(), err)
	return records, err
}

func (p *Ingest) run(ctx context.Context, start, end time.Time) ([]domain.ObjectApproachRecord, error) {
	p.logger.Info("fetching NEOs",
		"start", start.Format(domain.DateLayout),
		"end", end.Format(domain.DateLayout),
	)

	feed, err := p.extractor.FetchFeed(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	records, err := domain.Flatten(feed)
	if err != nil {
		return nil, fmt.Errorf("flatten feed: %w", err)
	}
	p.metrics.RecordsFlattened.Add(float64(len(records)))
	p.logger.Info("parsed objects", "count", len(records), "days", len(feed.Days))

	if len(records) == 0 {
		p.logger.Warn("no data, nothing to save")
		return records, nil
	}

	if err := loadAll(ctx, p.loaders, records); err != nil {
		return nil, err
	}
	return records, nil
}
