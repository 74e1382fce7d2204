package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/couchcryptid/neo-risk-etl/internal/observability"
)

// Risk reads a table, tags every row and hands the tagged table to every
// loader in order.
type Risk struct {
	extractor TableExtractor
	loaders   []BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRisk creates a Risk step. A loader may point at the same file the
// extractor reads; the whole table is read before anything is written.
func NewRisk(e TableExtractor, loaders []BatchLoader, logger *slog.Logger, metrics *observability.Metrics) *Risk {
	return &Risk{
		extractor: e,
		loaders:   loaders,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes the step and returns the per-category counts.
func (p *Risk) Run(ctx context.Context) (domain.RiskSummary, error) {
	began := time.Now()
	summary, err := p.run(ctx)
	p.metrics.ObserveStep(StepRisk, began, time.Now(), err)
	return summary, err
}

func (p *Risk) run(ctx context.Context) (domain.RiskSummary, error) {
	records, err := p.extractor.ExtractAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract table: %w", err)
	}
	p.logger.Info("table loaded", "rows", len(records))

	enriched, summary, err := domain.EnrichAll(records)
	if err != nil {
		return nil, fmt.Errorf("enrich: %w", err)
	}
	p.metrics.RecordsEnriched.Add(float64(len(enriched)))
	for category, n := range summary {
		p.metrics.RiskCategories.WithLabelValues(string(category)).Add(float64(n))
	}

	if err := loadAll(ctx, p.loaders, enriched); err != nil {
		return nil, err
	}

	p.logger.Info("risk tagging complete",
		"rows", summary.Total(),
		"high", summary[domain.RiskHigh],
		"medium", summary[domain.RiskMedium],
		"low", summary[domain.RiskLow],
	)
	return summary, nil
}
