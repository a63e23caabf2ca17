package interfaces

import (
	"context"

	"greenride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ApplyRideSettlement credits green points and folds the received
	// rating into the user's running mean in one atomic update. It is a
	// no-op returning false when the ride was already settled for this user.
	ApplyRideSettlement(ctx context.Context, settlement *models.RideSettlement) (bool, error)
	// ApplyRating folds one rating into the running mean atomically.
	ApplyRating(ctx context.Context, userID primitive.ObjectID, rating float64) (*models.User, error)
	// AddGreenPoints increments the user's green points and returns the
	// updated user.
	AddGreenPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error)
}
