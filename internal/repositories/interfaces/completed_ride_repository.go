package interfaces

import (
	"context"

	"greenride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CompletedRideRepository interface {
	// Create inserts the snapshot. ErrDuplicate if one already exists for
	// the ride.
	Create(ctx context.Context, completed *models.CompletedRide) error
	GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.CompletedRide, error)
	MarkSettled(ctx context.Context, rideID primitive.ObjectID) error
	// ListForUser returns completed rides where userID was rider or driver.
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.CompletedRide, error)
}
