package observability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "neo_etl"

// Metrics holds the Prometheus collectors for one batch run. Each instance owns
// its registry, so runs and tests never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	// Feed client metrics.
	FeedRequests        *prometheus.CounterVec // labels: outcome={success,error}
	FeedRequestDuration prometheus.Histogram

	// Pipeline metrics.
	RecordsFlattened prometheus.Counter
	RecordsEnriched  prometheus.Counter
	RecordsWritten   *prometheus.CounterVec // labels: sink={table,kafka}
	RiskCategories   *prometheus.CounterVec // labels: category={High,Medium,Low}
	StepDuration     *prometheus.GaugeVec   // labels: step={fetch,risk}
	LastSuccess      *prometheus.GaugeVec   // labels: step={fetch,risk}
}

// NewMetrics creates all collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FeedRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_requests_total",
			Help:      "NeoWs feed requests by outcome.",
		}, []string{"outcome"}),
		FeedRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_request_duration_seconds",
			Help:      "NeoWs feed request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsFlattened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_flattened_total",
			Help:      "Close-approach records produced from the feed.",
		}),
		RecordsEnriched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_enriched_total",
			Help:      "Records tagged by the risk step.",
		}),
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Records written by sink.",
		}, []string{"sink"}),
		RiskCategories: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_category_total",
			Help:      "Records per assigned risk category.",
		}, []string{"category"}),
		StepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of the last completed step.",
		}, []string{"step"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful step.",
		}, []string{"step"}),
	}

	m.registry.MustRegister(
		m.FeedRequests,
		m.FeedRequestDuration,
		m.RecordsFlattened,
		m.RecordsEnriched,
		m.RecordsWritten,
		m.RiskCategories,
		m.StepDuration,
		m.LastSuccess,
	)

	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStep records the duration of a finished step and, on success, its
// completion time.
func (m *Metrics) ObserveStep(step string, start, end time.Time, err error) {
	m.StepDuration.WithLabelValues(step).Set(end.Sub(start).Seconds())
	if err == nil {
		m.LastSuccess.WithLabelValues(step).Set(float64(end.Unix()))
	}
}

// Push replaces the job's metric group on a Prometheus Pushgateway.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
