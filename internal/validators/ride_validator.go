package validators

import (
	"time"

	"greenride/internal/utils"
)

type CreateRideRequest struct {
	Origin         string    `json:"origin" validate:"required,not_blank,max=200"`
	Destination    string    `json:"destination" validate:"required,not_blank,max=200"`
	DepartureTime  time.Time `json:"departure_time" validate:"required"`
	SeatsAvailable int       `json:"seats_available" validate:"required,min=1"`
	VehicleType    string    `json:"vehicle_type" validate:"omitempty,max=50"`
	DistanceKm     *float64  `json:"distance_km" validate:"omitempty,gt=0,lte=5000"`
}

type SearchRidesRequest struct {
	Origin      string `form:"origin" json:"origin" validate:"omitempty,max=200"`
	Destination string `form:"destination" json:"destination" validate:"omitempty,max=200"`
	VehicleType string `form:"vehicle_type" json:"vehicle_type" validate:"omitempty,max=50"`
}

type FindMatchesRequest struct {
	Origin      string `json:"origin" validate:"required,not_blank,max=200"`
	Destination string `json:"destination" validate:"required,not_blank,max=200"`
}

// CompleteRideRequest carries the settlement parameters. A rating of zero
// or an absent rating means the participant was not rated.
type CompleteRideRequest struct {
	RideID       string   `json:"ride_id" validate:"required,object_id"`
	RiderID      string   `json:"rider_id" validate:"required,object_id"`
	DriverID     string   `json:"driver_id" validate:"required,object_id"`
	DistanceKm   float64  `json:"distance_km" validate:"required,gt=0,lte=5000"`
	RiderRating  *float64 `json:"rider_rating" validate:"omitempty,rating_value"`
	DriverRating *float64 `json:"driver_rating" validate:"omitempty,rating_value"`
}

func ValidateCreateRide(req *CreateRideRequest) ValidationErrors {
	errs := ValidateStruct(req)

	if req.SeatsAvailable > utils.MaxSeatsPerRide {
		errs = append(errs, ValidationError{
			Field:   "seats_available",
			Tag:     "max",
			Message: "seats_available exceeds the vehicle limit",
		})
	}

	return errs
}

func ValidateCompleteRide(req *CompleteRideRequest) ValidationErrors {
	errs := ValidateStruct(req)

	if req.RiderID != "" && req.RiderID == req.DriverID {
		errs = append(errs, ValidationError{
			Field:   "rider_id",
			Tag:     "nefield",
			Message: "rider and driver must be different users",
		})
	}

	return errs
}
