package events

import (
	"context"
	"time"

	"pitstop/pkg/kafka"
	"pitstop/pkg/logger"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeBookingDeleted       = "booking.deleted"
)

// BookingEvent is the payload published to the booking events topic.
type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	ParkingSpaceID string    `json:"parking_space_id"`
	UserID         string    `json:"user_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher emits booking lifecycle events. Publishing is best effort: the
// booking write has already committed by the time an event goes out, so a
// publish failure is logged and never surfaced to the caller.
type Publisher interface {
	Publish(ctx context.Context, event *BookingEvent)
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger, source string) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log,
		source:   source,
	}
}

// Publish keys the message by parking space ID so events for one space are
// always delivered in order.
func (p *kafkaPublisher) Publish(ctx context.Context, event *BookingEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	msg := kafka.NewMessage().
		WithKey(event.ParkingSpaceID).
		WithValue(event).
		WithEventType(event.Type).
		WithSource(p.source).
		Build()

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Warn("Failed to publish booking event",
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"parking_space_id", event.ParkingSpaceID,
			"error", err,
		)
		return
	}

	p.log.Debug("Booking event published",
		"event_type", event.Type,
		"booking_id", event.BookingID,
		"parking_space_id", event.ParkingSpaceID,
	)
}

// NopPublisher discards events. Used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *BookingEvent) {}
