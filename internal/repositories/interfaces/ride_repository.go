package interfaces

import (
	"context"
	"time"

	"greenride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	// GetByID returns the ride in any status.
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)

	// Search returns active rides with free seats matching filter, earliest
	// departure first.
	Search(ctx context.Context, filter models.RideSearchFilter) ([]*models.Ride, error)

	// AddPassenger takes one seat for userID if the ride is active, has a
	// free seat, is not driven by userID and does not already carry them.
	// ErrNotFound means one of those preconditions failed.
	AddPassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error)

	// ListActiveForUser returns active rides driven by or carrying userID.
	ListActiveForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error)

	// BeginCompletion moves an active ride to completing and records the
	// completion parameters. ErrNotFound if the ride is not active.
	BeginCompletion(ctx context.Context, rideID primitive.ObjectID, completion *models.RideCompletion) (*models.Ride, error)
	// DeleteCompleting removes a ride that is in the completing state.
	DeleteCompleting(ctx context.Context, rideID primitive.ObjectID) error
	// ListCompleting returns rides stuck in completing since before cutoff.
	ListCompleting(ctx context.Context, cutoff time.Time) ([]*models.Ride, error)
}
