package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserType string

const (
	UserTypeUser  UserType = "user"
	UserTypeAdmin UserType = "admin"
)

// User is owned by the identity collaborator. Settlement only touches
// Rating, RatingsCount, GreenPoints and SettledRides.
type User struct {
	ID             primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name           string               `json:"name" bson:"name"`
	Email          string               `json:"email" bson:"email"`
	Password       string               `json:"-" bson:"password"`
	UserType       UserType             `json:"user_type" bson:"user_type"`
	Rating         float64              `json:"rating" bson:"rating"`
	RatingsCount   int                  `json:"ratings_count" bson:"ratings_count"`
	GreenPoints    int                  `json:"green_points" bson:"green_points"`
	Verified       bool                 `json:"verified" bson:"verified"`
	ProfilePicture string               `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	Phone          string               `json:"phone,omitempty" bson:"phone,omitempty"`
	SettledRides   []primitive.ObjectID `json:"-" bson:"settled_rides,omitempty"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

// RideSettlement is what one completed ride does to one participant.
type RideSettlement struct {
	UserID      primitive.ObjectID
	RideID      primitive.ObjectID
	GreenPoints int
	// Rating received by this participant; nil or out of range leaves the
	// running mean alone.
	Rating *float64
}
