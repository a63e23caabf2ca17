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

type completedRideRepository struct {
	collection *mongo.Collection
}

func NewCompletedRideRepository(db *mongo.Database) interfaces.CompletedRideRepository {
	return &completedRideRepository{
		collection: db.Collection(database.CollectionCompletedRides),
	}
}

func (r *completedRideRepository) Create(ctx context.Context, completed *models.CompletedRide) error {
	if completed.ID.IsZero() {
		completed.ID = primitive.NewObjectID()
	}
	completed.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, completed)
	return storeError("create completed ride", err)
}

func (r *completedRideRepository) GetByRideID(ctx context.Context, rideID primitive.ObjectID) (*models.CompletedRide, error) {
	var completed models.CompletedRide
	err := r.collection.FindOne(ctx, bson.M{"ride_id": rideID}).Decode(&completed)
	if err != nil {
		return nil, storeError("get completed ride", err)
	}
	return &completed, nil
}

func (r *completedRideRepository) MarkSettled(ctx context.Context, rideID primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"ride_id": rideID},
		bson.M{"$set": bson.M{"settled": true}},
	)
	if err != nil {
		return storeError("mark ride settled", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *completedRideRepository) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.CompletedRide, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"rider_id": userID},
		bson.M{"driver_id": userID},
	}}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("list completed rides", err)
	}
	return decodeAll[models.CompletedRide](ctx, cursor, "completed ride")
}
