package events

import (
	"context"
	"courtbook/pkg/kafka"
	"courtbook/pkg/logger"
	"errors"
	"io"
	"testing"
	"time"
)

type mockWriter struct {
	publishFunc func(ctx context.Context, msg kafka.Message) error
	single      []kafka.Message
	batches     [][]kafka.Message
}

func (m *mockWriter) Publish(ctx context.Context, msg kafka.Message) error {
	m.single = append(m.single, msg)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, msg)
	}
	return nil
}

func (m *mockWriter) PublishBatch(ctx context.Context, messages []kafka.Message) error {
	m.batches = append(m.batches, messages)
	return nil
}

func TestKafkaPublisher_Single(t *testing.T) {
	w := &mockWriter{}
	p := NewKafkaPublisher(w, "bookings")

	err := p.Publish(context.Background(), Event{
		Type:          BookingCancelled,
		Key:           "court-1",
		Payload:       map[string]string{"booking_id": "b1"},
		CorrelationID: "req-9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.single) != 1 || len(w.batches) != 0 {
		t.Fatalf("expected one single publish, got %d single / %d batches", len(w.single), len(w.batches))
	}

	msg := w.single[0]
	if msg.Key != "court-1" || msg.GetEventType() != BookingCancelled || msg.GetCorrelationID() != "req-9" {
		t.Errorf("unexpected message: key=%s headers=%v", msg.Key, msg.Headers)
	}
	if msg.Headers[kafka.HeaderSource] != "bookings" || msg.Headers[kafka.HeaderSchemaVersion] != SchemaVersion {
		t.Errorf("missing source or schema headers: %v", msg.Headers)
	}
}

func TestKafkaPublisher_SeriesUsesBatch(t *testing.T) {
	w := &mockWriter{}
	p := NewKafkaPublisher(w, "bookings")

	var series []Event
	for _, id := range []string{"b1", "b2", "b3"} {
		series = append(series, Event{Type: BookingCreated, Key: "court-1", Payload: id})
	}

	if err := p.Publish(context.Background(), series...); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.batches) != 1 || len(w.batches[0]) != 3 {
		t.Fatalf("expected one batch of 3, got %v", w.batches)
	}
}

func TestNotify_SwallowsErrors(t *testing.T) {
	w := &mockWriter{publishFunc: func(ctx context.Context, msg kafka.Message) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected publish context to carry a deadline")
		}
		return errors.New("broker down")
	}}
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	Notify(ctx, NewKafkaPublisher(w, "bookings"), log, time.Second, Event{Type: BookingCreated, Key: "k", Payload: "v"})

	if len(w.single) != 1 {
		t.Errorf("expected publish to run on a detached context, got %d calls", len(w.single))
	}
}

func TestNopPublisher(t *testing.T) {
	if err := (NopPublisher{}).Publish(context.Background(), Event{Type: BookingCreated}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
