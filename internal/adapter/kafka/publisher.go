// Package kafka publishes canonical records to a Kafka topic so downstream
// consumers (warehouses, alerting) can ingest the normalized dataset without
// reading the cache file. Export is feature-flagged and best-effort: the
// dashboard serves from the local cache whether or not publishing succeeds.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/config"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
)

// publishBatchSize bounds the number of records per WriteMessages call.
const publishBatchSize = 500

// Publisher produces canonical records to the export topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured export topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishDataset serializes and publishes every record of the dataset,
// batching WriteMessages calls. Messages are keyed by the canonical record
// key so re-exports of the same dataset land on the same partitions.
func (p *Publisher) PublishDataset(ctx context.Context, ds *domain.Dataset) error {
	records := ds.Records
	p.logger.Info("publishing dataset", "records", len(records), "topic", p.writer.Topic)

	for start := 0; start < len(records); start += publishBatchSize {
		end := min(start+publishBatchSize, len(records))

		msgs := make([]kafkago.Message, 0, end-start)
		for _, rec := range records[start:end] {
			msg, err := serializeRecord(rec, ds.BuiltAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish batch at %d: %w", start, err)
		}
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeRecord marshals a canonical record into a Kafka message.
func serializeRecord(rec domain.CanonicalRecord, builtAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "country", Value: []byte(rec.Country)},
			{Key: "built_at", Value: []byte(builtAt.Format(time.RFC3339))},
		},
	}, nil
}
