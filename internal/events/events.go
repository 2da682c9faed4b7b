// Package events announces committed booking changes to other services.
package events

import (
	"context"
	"fmt"
	"time"

	"courtbook/pkg/kafka"
	"courtbook/pkg/logger"
)

const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
	BookingNoShow    = "booking.no_show"
	ServicesAttached = "service_booking.created"

	SchemaVersion = "1"
)

type Event struct {
	Type          string
	Key           string
	Payload       any
	CorrelationID string
	OccurredAt    time.Time
}

// Publisher is called only after the change it reports has committed.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }

type messageWriter interface {
	Publish(ctx context.Context, msg kafka.Message) error
	PublishBatch(ctx context.Context, messages []kafka.Message) error
}

type KafkaPublisher struct {
	producer messageWriter
	source   string
}

func NewKafkaPublisher(producer messageWriter, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		b := kafka.NewMessage().
			WithKey(e.Key).
			WithValue(e.Payload).
			WithEventType(e.Type).
			WithCorrelationID(e.CorrelationID).
			WithSchemaVersion(SchemaVersion).
			WithSource(p.source)
		if !e.OccurredAt.IsZero() {
			b = b.WithTimestamp(e.OccurredAt)
		}
		messages = append(messages, b.Build())
	}

	if len(messages) == 1 {
		if err := p.producer.Publish(ctx, messages[0]); err != nil {
			return fmt.Errorf("publish %s: %w", events[0].Type, err)
		}
		return nil
	}
	if err := p.producer.PublishBatch(ctx, messages); err != nil {
		return fmt.Errorf("publish %d events: %w", len(messages), err)
	}
	return nil
}

// Notify publishes on a context detached from the request and logs failures.
// The change is already committed, so a lost event never fails the caller.
func Notify(ctx context.Context, p Publisher, log *logger.Logger, timeout time.Duration, events ...Event) {
	if p == nil || len(events) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := p.Publish(ctx, events...); err != nil {
		log.Warn("Failed to publish events",
			"type", events[0].Type,
			"count", len(events),
			"error", err,
		)
	}
}
