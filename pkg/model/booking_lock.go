package model

import "time"

// BookingLock is an advisory lock keyed by parking space. Inserting it into a
// collection with a unique _id serializes concurrent admission attempts on the
// same space; a TTL index on expires_at reaps locks leaked by crashed requests.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
