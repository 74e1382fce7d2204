package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/neo-risk-etl/internal/config"
	"github.com/couchcryptid/neo-risk-etl/internal/domain"
	"github.com/couchcryptid/neo-risk-etl/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys set on every published record.
const (
	HeaderNEOID        = "neo_id"
	HeaderApproachDate = "close_approach_date"
	HeaderRiskCategory = "risk_cluster"
)

// Writer publishes close-approach records to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// LoadBatch publishes all records in a single WriteMessages call. Records are
// keyed by object and date, so re-publishing a run lands on the same
// partitions.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.ObjectApproachRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish to %s: %w", w.writer.Topic, err)
	}
	w.metrics.RecordsWritten.WithLabelValues("kafka").Add(float64(len(records)))
	w.logger.Info("records published", "topic", w.writer.Topic, "count", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a record into a Kafka message.
func serializeToMessage(rec domain.ObjectApproachRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize neo %s: %w", rec.ID, err)
	}
	headers := []kafkago.Header{
		{Key: HeaderNEOID, Value: []byte(rec.ID)},
		{Key: HeaderApproachDate, Value: []byte(rec.ApproachDate.Format(domain.DateLayout))},
	}
	if rec.RiskCategory != nil {
		headers = append(headers, kafkago.Header{Key: HeaderRiskCategory, Value: []byte(*rec.RiskCategory)})
	}
	return kafkago.Message{
		Key:     []byte(rec.Key()),
		Value:   data,
		Headers: headers,
	}, nil
}

// DecodeMessage parses a message produced by Writer back into a record.
func DecodeMessage(msg kafkago.Message) (domain.ObjectApproachRecord, error) {
	var rec domain.ObjectApproachRecord
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return domain.ObjectApproachRecord{}, fmt.Errorf("decode message at offset %d: %w", msg.Offset, err)
	}
	return rec, nil
}
