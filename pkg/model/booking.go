package model

import (
	"time"
)

// Booking reserves a parking space for a half-open [StartDate, EndDate)
// window. Two non-cancelled bookings on the same space must never overlap.
type Booking struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ParkingSpaceID string    `json:"parking_space_id" bson:"parking_space_id" validate:"required,mongodb"`
	UserID         string    `json:"user_id" bson:"user_id" validate:"required"`
	StartDate      time.Time `json:"start_date" bson:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	Status         string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type BookingUpdate struct {
	StartDate *time.Time `json:"start_date,omitempty" validate:"omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty" validate:"omitempty"`
	Status    string     `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed completed cancelled"`
}

// Interval is the projection of a booking used for overlap checks.
type Interval struct {
	Start time.Time `bson:"start_date"`
	End   time.Time `bson:"end_date"`
}
