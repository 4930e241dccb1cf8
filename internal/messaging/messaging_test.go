package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestHeaderCarrier(t *testing.T) {
	var headers []kafka.Header
	carrier := NewHeaderCarrier(&headers)

	carrier.Set("traceparent", "a")
	carrier.Set("baggage", "b")
	carrier.Set("traceparent", "c")

	if len(headers) != 2 {
		t.Fatalf("expected 2 headers, got %d", len(headers))
	}
	if got := carrier.Get("traceparent"); got != "c" {
		t.Errorf("expected overwritten value c, got %s", got)
	}
	if got := carrier.Get("missing"); got != "" {
		t.Errorf("expected empty value, got %s", got)
	}
	if keys := carrier.Keys(); strings.Join(keys, ",") != "traceparent,baggage" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestProducer_Publish(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Run("writes keyed JSON with trace context", func(t *testing.T) {
		writer := &fakeWriter{}
		producer := &Producer{writer: writer, topic: OrderCreatedTopic}

		traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
		spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
		ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: trace.FlagsSampled,
		}))

		if err := producer.Publish(ctx, "7", map[string]int{"quantity": 2}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(writer.msgs) != 1 {
			t.Fatalf("expected 1 message, got %d", len(writer.msgs))
		}
		msg := writer.msgs[0]
		if string(msg.Key) != "7" {
			t.Errorf("expected key 7, got %s", msg.Key)
		}
		var body map[string]int
		if err := json.Unmarshal(msg.Value, &body); err != nil || body["quantity"] != 2 {
			t.Errorf("unexpected value %s: %v", msg.Value, err)
		}

		traceparent := NewHeaderCarrier(&msg.Headers).Get("traceparent")
		if !strings.Contains(traceparent, traceID.String()) {
			t.Errorf("expected traceparent to carry %s, got %q", traceID, traceparent)
		}
	})

	t.Run("wraps write errors", func(t *testing.T) {
		writer := &fakeWriter{err: errors.New("no brokers")}
		producer := &Producer{writer: writer, topic: OrderCreatedTopic}

		err := producer.Publish(context.Background(), "1", struct{}{})
		if err == nil || !strings.Contains(err.Error(), "no brokers") {
			t.Errorf("expected wrapped write error, got %v", err)
		}
	})

	t.Run("rejects unmarshalable events", func(t *testing.T) {
		writer := &fakeWriter{}
		producer := &Producer{writer: writer, topic: OrderCreatedTopic}

		if err := producer.Publish(context.Background(), "1", make(chan int)); err == nil {
			t.Error("expected marshal error")
		}
		if len(writer.msgs) != 0 {
			t.Errorf("expected nothing written, got %d", len(writer.msgs))
		}
	})
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func newTestConsumer(reader *fakeReader) *Consumer {
	return &Consumer{
		reader:  reader,
		topic:   OrderCreatedTopic,
		groupID: "test",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestConsumer_Consume(t *testing.T) {
	t.Run("commits each handled message", func(t *testing.T) {
		reader := &fakeReader{msgs: []kafka.Message{{Offset: 1, Value: []byte("a")}, {Offset: 2, Value: []byte("b")}}}
		var seen []string

		err := newTestConsumer(reader).Consume(context.Background(), func(ctx context.Context, payload []byte) error {
			seen = append(seen, string(payload))
			return nil
		})
		if !errors.Is(err, io.EOF) {
			t.Fatalf("expected io.EOF, got %v", err)
		}
		if strings.Join(seen, "") != "ab" {
			t.Errorf("unexpected payloads: %v", seen)
		}
		if len(reader.committed) != 2 {
			t.Errorf("expected 2 commits, got %v", reader.committed)
		}
	})

	t.Run("commits past permanent failures", func(t *testing.T) {
		reader := &fakeReader{msgs: []kafka.Message{{Offset: 1}, {Offset: 2}}}

		_ = newTestConsumer(reader).Consume(context.Background(), func(ctx context.Context, payload []byte) error {
			return fmt.Errorf("decode: %w", ErrPermanent)
		})
		if len(reader.committed) != 2 {
			t.Errorf("expected 2 commits, got %v", reader.committed)
		}
	})

	t.Run("stops on transient failures without committing", func(t *testing.T) {
		reader := &fakeReader{msgs: []kafka.Message{{Offset: 1}, {Offset: 2}}}
		boom := errors.New("inventory down")

		err := newTestConsumer(reader).Consume(context.Background(), func(ctx context.Context, payload []byte) error {
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected handler error, got %v", err)
		}
		if len(reader.committed) != 0 {
			t.Errorf("expected no commits, got %v", reader.committed)
		}
	})
}
