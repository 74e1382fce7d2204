//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/neo-risk-etl/internal/adapter/kafka"
	"github.com/couchcryptid/neo-risk-etl/internal/adapter/neows"
	"github.com/couchcryptid/neo-risk-etl/internal/config"
	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/couchcryptid/neo-risk-etl/internal/observability"
	"github.com/couchcryptid/neo-risk-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTopic    = "neo-close-approaches-test"
	mockFeedPath = "../../data/mock/neows_feed_250530.json"
)

// publishedRecord holds a decoded message read back from the sink topic.
type publishedRecord struct {
	Record  domain.ObjectApproachRecord
	Key     string
	Headers map[string]string
}

func readPublished(ctx context.Context, t *testing.T, consumer *kafkago.Reader, n int) []publishedRecord {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make([]publishedRecord, 0, n)
	for len(out) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from sink topic")

		rec, err := kafka.DecodeMessage(msg)
		require.NoError(t, err)
		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		out = append(out, publishedRecord{Record: rec, Key: string(msg.Key), Headers: headers})
	}
	return out
}

func newConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestIngestToKafka runs the fetch step against a recorded feed and checks
// every flattened record lands on the topic, keyed by object and date.
func TestIngestToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	body, err := os.ReadFile(mockFeedPath)
	require.NoError(t, err)
	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	}))
	defer feedSrv.Close()

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	metrics := observability.NewMetrics()

	writer := kafka.NewWriter(cfg, metrics, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	client := neows.NewClient("integration-key", feedSrv.URL, 10*time.Second, metrics, discardLogger())
	start := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	records, err := pipeline.NewIngest(client, []pipeline.BatchLoader{writer}, discardLogger(), metrics).
		Run(ctx, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, records, 3)

	published := readPublished(ctx, t, newConsumer(t, broker), len(records))
	for i, p := range published {
		assert.Equal(t, records[i].Key(), p.Key)
		assert.Equal(t, records[i].ID, p.Headers[kafka.HeaderNEOID])
		assert.NotContains(t, p.Headers, kafka.HeaderRiskCategory)
		assert.Equal(t, records[i], p.Record)
	}
}

// TestRiskToKafka publishes tagged records and checks the category header.
func TestRiskToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}
	metrics := observability.NewMetrics()
	writer := kafka.NewWriter(cfg, metrics, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	source := staticTable{
		{ID: "1", ApproachDate: time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC), MissDistanceKM: 500000, KineticEnergyKT: 2024.5},
	}
	summary, err := pipeline.NewRisk(source, []pipeline.BatchLoader{writer}, discardLogger(), metrics).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary[domain.RiskHigh])

	published := readPublished(ctx, t, newConsumer(t, broker), 1)
	assert.Equal(t, "1|2025-05-30", published[0].Key)
	assert.Equal(t, "High", published[0].Headers[kafka.HeaderRiskCategory])
	require.NotNil(t, published[0].Record.PalermoProxy)
	assert.InDelta(t, 2.7823, *published[0].Record.PalermoProxy, 0.01)
}

type staticTable []domain.ObjectApproachRecord

func (s staticTable) ExtractAll(_ context.Context) ([]domain.ObjectApproachRecord, error) {
	return s, nil
}
