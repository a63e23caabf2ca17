package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string
type RideLifecycle string

const (
	// RideStatusActive rides accept passengers and show up in search.
	RideStatusActive RideStatus = "active"
	// RideStatusCompleting rides are mid-settlement; the document is deleted
	// once the completed snapshot and user credits are written.
	RideStatusCompleting RideStatus = "completing"

	RideLifecycleActive    RideLifecycle = "active"
	RideLifecycleCompleted RideLifecycle = "completed"
)

type Ride struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Origin         string               `json:"origin" bson:"origin"`
	Destination    string               `json:"destination" bson:"destination"`
	DepartureTime  time.Time            `json:"departure_time" bson:"departure_time"`
	SeatsAvailable int                  `json:"seats_available" bson:"seats_available"`
	SeatsTotal     int                  `json:"seats_total" bson:"seats_total"`
	VehicleType    string               `json:"vehicle_type,omitempty" bson:"vehicle_type,omitempty"`
	DriverID       primitive.ObjectID   `json:"driver_id" bson:"driver_id"`
	Passengers     []primitive.ObjectID `json:"passengers" bson:"passengers"`
	DistanceKm     *float64             `json:"distance_km,omitempty" bson:"distance_km,omitempty"`
	Status         RideStatus           `json:"status" bson:"status"`
	Completion     *RideCompletion      `json:"-" bson:"completion,omitempty"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

func (r *Ride) HasPassenger(userID primitive.ObjectID) bool {
	for _, p := range r.Passengers {
		if p == userID {
			return true
		}
	}
	return false
}

// IsParticipant reports whether userID drives or rides in r.
func (r *Ride) IsParticipant(userID primitive.ObjectID) bool {
	return r.DriverID == userID || r.HasPassenger(userID)
}

// RideCompletion records the arguments of the first completion attempt so a
// retry after a crash settles with the same values.
type RideCompletion struct {
	RiderID      primitive.ObjectID `json:"rider_id" bson:"rider_id"`
	DriverID     primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	DistanceKm   float64            `json:"distance_km" bson:"distance_km"`
	RiderRating  *float64           `json:"rider_rating,omitempty" bson:"rider_rating,omitempty"`
	DriverRating *float64           `json:"driver_rating,omitempty" bson:"driver_rating,omitempty"`
	StartedAt    time.Time          `json:"started_at" bson:"started_at"`
}

// CompletedRide is the immutable snapshot written once per completed ride.
type CompletedRide struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID       primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	RiderID      primitive.ObjectID `json:"rider_id" bson:"rider_id"`
	DriverID     primitive.ObjectID `json:"driver_id" bson:"driver_id"`
	Origin       string             `json:"origin,omitempty" bson:"origin,omitempty"`
	Destination  string             `json:"destination,omitempty" bson:"destination,omitempty"`
	DistanceKm   float64            `json:"distance_km" bson:"distance_km"`
	CO2SavedKg   float64            `json:"co2_saved_kg" bson:"co2_saved_kg"`
	GreenPoints  int                `json:"green_points" bson:"green_points"`
	RiderRating  *float64           `json:"rider_rating,omitempty" bson:"rider_rating,omitempty"`
	DriverRating *float64           `json:"driver_rating,omitempty" bson:"driver_rating,omitempty"`
	Settled      bool               `json:"settled" bson:"settled"`
	CompletedAt  time.Time          `json:"completed_at" bson:"completed_at"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}

// RideHistoryEntry is one row of a user's ride history. Exactly one of Ride
// and CompletedRide is set, matching Lifecycle.
type RideHistoryEntry struct {
	Lifecycle     RideLifecycle  `json:"lifecycle"`
	Ride          *Ride          `json:"ride,omitempty"`
	CompletedRide *CompletedRide `json:"completed_ride,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// RideSearchFilter holds optional search criteria; empty fields match all.
type RideSearchFilter struct {
	Origin      string
	Destination string
	VehicleType string
}
