package mongodb

import (
	"context"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type transactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) interfaces.TransactionRepository {
	return &transactionRepository{
		collection: db.Collection(database.CollectionTransactions),
	}
}

func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	txn.ID = primitive.NewObjectID()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, txn)
	return storeError("create transaction", err)
}

func (r *transactionRepository) GetByBonusKey(ctx context.Context, bonusKey string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"bonus_key": bonusKey}).Decode(&txn)
	if err != nil {
		return nil, storeError("get transaction by bonus key", err)
	}
	return &txn, nil
}

func (r *transactionRepository) ListForUser(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]*models.TransactionWithMethod, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: int64(skip)}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.CollectionPaymentMethods,
			"localField":   "payment_method_id",
			"foreignField": "_id",
			"as":           "payment_method",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"type": 1, "card": 1}},
			},
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$payment_method",
			"preserveNullAndEmptyArrays": true,
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storeError("list transactions", err)
	}
	return decodeAll[models.TransactionWithMethod](ctx, cursor, "transaction")
}

func (r *transactionRepository) CountForUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, storeError("count transactions", err)
	}
	return n, nil
}

func (r *transactionRepository) Totals(ctx context.Context, userID primitive.ObjectID, since time.Time) (*models.GreenPeriodStats, error) {
	match := bson.M{
		"user_id": userID,
		"status":  models.TransactionStatusCompleted,
	}
	if !since.IsZero() {
		match["created_at"] = bson.M{"$gte": since}
	}

	isRidePayment := bson.M{"$eq": bson.A{"$type", models.TransactionTypeRidePayment}}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":                 nil,
			"co2_saved_kg":        bson.M{"$sum": "$carbon_offset_kg"},
			"green_points_earned": bson.M{"$sum": "$green_points_earned"},
			"rides_completed":     bson.M{"$sum": bson.M{"$cond": bson.A{isRidePayment, 1, 0}}},
			"money_spent":         bson.M{"$sum": bson.M{"$cond": bson.A{isRidePayment, "$amount", 0}}},
			"member_since":        bson.M{"$min": "$created_at"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline, options.Aggregate())
	if err != nil {
		return nil, storeError("aggregate transaction totals", err)
	}
	totals, err := decodeAll[models.GreenPeriodStats](ctx, cursor, "transaction totals")
	if err != nil {
		return nil, err
	}
	if len(totals) == 0 {
		return &models.GreenPeriodStats{}, nil
	}
	return totals[0], nil
}

var _ interfaces.TransactionRepository = (*transactionRepository)(nil)
