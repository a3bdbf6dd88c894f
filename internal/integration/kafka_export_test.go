//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/adapter/kafka"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/config"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
)

const testExportTopic = "test-covid-export"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	require.NoError(t, err)
	return d
}

// exportedMessage holds one deserialized message read from the export topic.
type exportedMessage struct {
	Record  domain.CanonicalRecord
	Key     string
	Headers map[string]string
}

func readExported(ctx context.Context, t *testing.T, consumer *kafkago.Reader) exportedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from export topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var rec domain.CanonicalRecord
	require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal exported record")

	return exportedMessage{Record: rec, Key: string(msg.Key), Headers: headers}
}

// TestDatasetExport publishes a small dataset through the real broker and
// verifies every record arrives with its canonical key and headers intact.
func TestDatasetExport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testExportTopic)

	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testExportTopic,
	}

	builtAt := time.Date(2020, time.February, 1, 8, 0, 0, 0, time.UTC)
	ds := &domain.Dataset{
		BuiltAt: builtAt,
		Records: []domain.CanonicalRecord{
			{ObservationDate: day(t, "2020-01-22"), Country: "Mainland China", Province: "Hubei", Confirmed: 444, Deaths: 17, Recovered: 28},
			{ObservationDate: day(t, "2020-01-22"), Country: "Japan", Confirmed: 2},
			{ObservationDate: day(t, "2020-01-23"), Country: "Mainland China", Province: "Hubei", Confirmed: 549, Deaths: 24, Recovered: 31},
		},
	}

	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	require.NoError(t, publisher.PublishDataset(ctx, ds))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testExportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make([]exportedMessage, 0, ds.Len())
	for len(received) < ds.Len() {
		received = append(received, readExported(ctx, t, consumer))
	}

	byKey := make(map[string]exportedMessage, len(received))
	for _, em := range received {
		byKey[em.Key] = em

		assert.NotEmpty(t, em.Headers["country"], "missing country header")
		assert.Equal(t, "2020-02-01T08:00:00Z", em.Headers["built_at"])
	}
	require.Len(t, byKey, ds.Len(), "every record keyed uniquely")

	hubei, ok := byKey["2020-01-22|Mainland China|Hubei"]
	require.True(t, ok, "expected the Hubei 01-22 record on the topic")
	assert.Equal(t, int64(444), hubei.Record.Confirmed)
	assert.Equal(t, int64(17), hubei.Record.Deaths)
	assert.Equal(t, "Mainland China", hubei.Headers["country"])

	japan, ok := byKey["2020-01-22|Japan|"]
	require.True(t, ok, "expected the Japan record on the topic")
	assert.Equal(t, int64(2), japan.Record.Confirmed)
	assert.Empty(t, japan.Record.Province)
}

// TestDatasetExport_Reexport verifies a second export of the same dataset
// reuses the same keys, so compacted downstream topics retain one value per
// canonical record.
func TestDatasetExport_Reexport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testExportTopic)

	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testExportTopic,
	}

	ds := &domain.Dataset{
		BuiltAt: time.Now().UTC(),
		Records: []domain.CanonicalRecord{
			{ObservationDate: day(t, "2020-01-22"), Country: "Japan", Confirmed: 2},
		},
	}

	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	require.NoError(t, publisher.PublishDataset(ctx, ds))
	require.NoError(t, publisher.PublishDataset(ctx, ds))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testExportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readExported(ctx, t, consumer)
	second := readExported(ctx, t, consumer)
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, "2020-01-22|Japan|", first.Key)
}
