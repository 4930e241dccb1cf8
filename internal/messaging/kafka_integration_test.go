//go:build integration

package messaging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/joao-fontenele/orderflow-rest-demo/internal/domain"
)

func setupKafka(ctx context.Context, t *testing.T) []string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		tckafka.WithClusterID("test-cluster"),
	)
	if err != nil {
		t.Fatalf("failed to start kafka container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	if err != nil {
		t.Fatalf("failed to get kafka brokers: %v", err)
	}
	return brokers
}

func TestOrderCreatedRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	brokers := setupKafka(ctx, t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	producer := NewProducer(brokers, OrderCreatedTopic)
	defer func() { _ = producer.Close() }()

	sent := domain.OrderCreatedEvent{
		EventID:   "evt-1",
		OrderID:   "3",
		ItemID:    "2",
		Quantity:  1,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := producer.Publish(ctx, sent.OrderID, sent); err != nil {
		t.Fatalf("failed to publish: %v", err)
	}

	consumer := NewConsumer(brokers, OrderCreatedTopic, "round-trip-test", logger, WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()

	var received domain.OrderCreatedEvent
	err := consumer.Consume(consumeCtx, func(ctx context.Context, payload []byte) error {
		if err := json.Unmarshal(payload, &received); err != nil {
			return err
		}
		stop()
		return nil
	})
	if err != nil && consumeCtx.Err() == nil {
		t.Fatalf("consumer error: %v", err)
	}

	if received.EventID != sent.EventID || received.OrderID != sent.OrderID || received.Quantity != sent.Quantity {
		t.Fatalf("expected %+v, got %+v", sent, received)
	}
}
