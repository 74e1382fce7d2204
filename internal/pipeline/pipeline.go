// Package pipeline wires the two batch steps: Ingest (feed → table) and Risk
// (table → tagged table). Each step reads all of its input before writing.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/neo-risk-etl/internal/domain"
)

// FeedExtractor fetches one feed window from the upstream API.
type FeedExtractor interface {
	FetchFeed(ctx context.Context, start, end time.Time) (domain.Feed, error)
}

// TableExtractor reads a complete table.
type TableExtractor interface {
	ExtractAll(ctx context.Context) ([]domain.ObjectApproachRecord, error)
}

// BatchLoader writes a complete table to one destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.ObjectApproachRecord) error
}

// Step names used for logging and metrics labels.
const (
	StepFetch = "fetch"
	StepRisk  = "risk"
)

func loadAll(ctx context.Context, loaders []BatchLoader, records []domain.ObjectApproachRecord) error {
	for _, l := range loaders {
		if err := l.LoadBatch(ctx, records); err != nil {
			return fmt.Errorf("load batch: %w", err)
		}
	}
	return nil
}
