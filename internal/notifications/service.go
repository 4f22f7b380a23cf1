package notifications

import (
	"context"
	"fmt"

	"pitstop/internal/bookings/events"
	"pitstop/pkg/kafka"
	"pitstop/pkg/logger"
)

// Service turns booking events into user notifications. Delivery channels
// (email, push) sit behind the platform; this service owns the consume side
// and the notification log.
type Service struct {
	log *logger.Logger
}

func NewService(log *logger.Logger) *Service {
	return &Service{log: log}
}

// HandleBookingEvent is the Kafka message handler. Undecodable payloads are
// permanent failures and go straight to the DLQ.
func (s *Service) HandleBookingEvent(ctx context.Context, msg kafka.Message) error {
	var event events.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("%w: %v", kafka.ErrInvalidMessage, err)
	}

	switch event.Type {
	case events.TypeBookingCreated:
		s.log.Info("Notifying space owner of new booking",
			"booking_id", event.BookingID,
			"parking_space_id", event.ParkingSpaceID,
			"user_id", event.UserID,
			"start_date", event.StartDate,
			"end_date", event.EndDate,
		)
	case events.TypeBookingStatusChanged:
		s.log.Info("Notifying booking user of status change",
			"booking_id", event.BookingID,
			"parking_space_id", event.ParkingSpaceID,
			"user_id", event.UserID,
			"status", event.Status,
		)
	case events.TypeBookingDeleted:
		s.log.Info("Notifying space owner of booking removal",
			"booking_id", event.BookingID,
			"parking_space_id", event.ParkingSpaceID,
			"user_id", event.UserID,
		)
	default:
		s.log.Warn("Ignoring unknown booking event type",
			"event_type", event.Type,
			"event_id", msg.GetEventID(),
		)
	}

	return nil
}
