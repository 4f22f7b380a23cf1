package model

import "time"

// ParkingSpace is a listed spot owned by a user. Availability is a plain
// boolean flipped by the booking lifecycle, never set directly by clients.
type ParkingSpace struct {
	ID          string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID     string  `json:"owner_id" bson:"owner_id" validate:"required"`
	Title       string  `json:"title" bson:"title" validate:"required,min=1,max=100"`
	Description string  `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=2000"`
	Address     string  `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=300"`
	Latitude    float64 `json:"latitude" bson:"latitude" validate:"min=-90,max=90"`
	Longitude   float64 `json:"longitude" bson:"longitude" validate:"min=-180,max=180"`

	PricePerHour float64 `json:"price_per_hour" bson:"price_per_hour" validate:"min=0"`
	PricePerDay  float64 `json:"price_per_day" bson:"price_per_day" validate:"min=0"`

	Availability               bool   `json:"availability" bson:"availability"`
	HasRoof                    bool   `json:"has_roof" bson:"has_roof"`
	CanAccomodateLargeVehicles bool   `json:"can_accomodate_large_vehicles" bson:"can_accomodate_large_vehicles"`
	SurfaceType                string `json:"surface_type,omitempty" bson:"surface_type,omitempty" validate:"omitempty,max=50"`

	Dimensions map[string]float64 `json:"dimensions,omitempty" bson:"dimensions,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type ParkingSpaceUpdate struct {
	Title       string   `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=300"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`

	PricePerHour *float64 `json:"price_per_hour,omitempty" validate:"omitempty,min=0"`
	PricePerDay  *float64 `json:"price_per_day,omitempty" validate:"omitempty,min=0"`

	HasRoof                    *bool   `json:"has_roof,omitempty"`
	CanAccomodateLargeVehicles *bool   `json:"can_accomodate_large_vehicles,omitempty"`
	SurfaceType                *string `json:"surface_type,omitempty" validate:"omitempty,max=50"`

	Dimensions map[string]float64 `json:"dimensions,omitempty"`
}

// SpaceSearch carries optional listing filters.
type SpaceSearch struct {
	OnlyAvailable    bool
	MaxPricePerHour  *float64
	MaxPricePerDay   *float64
	RequireRoof      bool
	LargeVehicleOnly bool
}
