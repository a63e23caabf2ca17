package interfaces

import (
	"context"
	"time"

	"greenride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionRepository interface {
	// Create appends a ledger entry. ErrDuplicate on a transaction id or
	// bonus key collision.
	Create(ctx context.Context, txn *models.Transaction) error
	GetByBonusKey(ctx context.Context, bonusKey string) (*models.Transaction, error)
	// ListForUser returns entries newest first with a summary of the payment
	// method used.
	ListForUser(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]*models.TransactionWithMethod, error)
	CountForUser(ctx context.Context, userID primitive.ObjectID) (int64, error)
	// Totals sums completed transactions created at or after since. A zero
	// since covers all time.
	Totals(ctx context.Context, userID primitive.ObjectID, since time.Time) (*models.GreenPeriodStats, error)
}
