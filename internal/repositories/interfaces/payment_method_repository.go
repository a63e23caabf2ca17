package interfaces

import (
	"context"

	"greenride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentMethodRepository interface {
	// Create inserts the method. ErrDuplicate if it is a default and the
	// user already has one.
	Create(ctx context.Context, method *models.PaymentMethod) error
	// GetActive returns an active method owned by userID.
	GetActive(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error)
	// ListActive returns active methods, default first then newest first.
	ListActive(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error)
	CountActive(ctx context.Context, userID primitive.ObjectID) (int64, error)

	// DemoteDefaults makes every default method of userID other than keep a
	// plain active method.
	DemoteDefaults(ctx context.Context, userID, keep primitive.ObjectID) error
	// Promote makes an active method the default. ErrNotFound if it is not
	// an active method owned by userID.
	Promote(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error)
	// PromoteNewest makes the newest non-default active method the default.
	PromoteNewest(ctx context.Context, userID primitive.ObjectID) (*models.PaymentMethod, error)
	// Deactivate soft-deletes an active method and returns it as it was
	// before the update.
	Deactivate(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error)

	// DebitBalance applies delta to a green wallet whose balance covers
	// amount. ErrNotFound if the balance is short.
	DebitBalance(ctx context.Context, id primitive.ObjectID, amount, delta float64) (*models.PaymentMethod, error)
	// DebitCredits applies delta to eco credits holding at least needed.
	DebitCredits(ctx context.Context, id primitive.ObjectID, needed, delta int) (*models.PaymentMethod, error)
	AdjustBalance(ctx context.Context, id primitive.ObjectID, delta float64) error
	AdjustCredits(ctx context.Context, id primitive.ObjectID, delta int) (*models.PaymentMethod, error)

	// EnsureEcoCredits returns the user's active eco credits method,
	// creating an empty one if none exists. created reports an insert.
	EnsureEcoCredits(ctx context.Context, userID primitive.ObjectID) (method *models.PaymentMethod, created bool, err error)
}
