package mongodb

import (
	"context"
	"regexp"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection(database.CollectionRides),
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	ride.ID = primitive.NewObjectID()
	ride.Status = models.RideStatusActive
	if ride.Passengers == nil {
		ride.Passengers = []primitive.ObjectID{}
	}
	ride.CreatedAt = time.Now()
	ride.UpdatedAt = ride.CreatedAt

	_, err := r.collection.InsertOne(ctx, ride)
	return storeError("create ride", err)
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		return nil, storeError("get ride", err)
	}
	return &ride, nil
}

func (r *rideRepository) Search(ctx context.Context, filter models.RideSearchFilter) ([]*models.Ride, error) {
	query := bson.M{
		"status":          models.RideStatusActive,
		"seats_available": bson.M{"$gt": 0},
	}
	if filter.Origin != "" {
		query["origin"] = containsInsensitive(filter.Origin)
	}
	if filter.Destination != "" {
		query["destination"] = containsInsensitive(filter.Destination)
	}
	if filter.VehicleType != "" {
		query["vehicle_type"] = filter.VehicleType
	}

	opts := options.Find().SetSort(bson.D{{Key: "departure_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, storeError("search rides", err)
	}
	return decodeAll[models.Ride](ctx, cursor, "ride")
}

func (r *rideRepository) AddPassenger(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error) {
	filter := bson.M{
		"_id":             rideID,
		"status":          models.RideStatusActive,
		"seats_available": bson.M{"$gt": 0},
		"driver_id":       bson.M{"$ne": userID},
		"passengers":      bson.M{"$ne": userID},
	}
	update := bson.M{
		"$inc":  bson.M{"seats_available": -1},
		"$push": bson.M{"passengers": userID},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ride models.Ride
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride); err != nil {
		return nil, storeError("add passenger", err)
	}
	return &ride, nil
}

func (r *rideRepository) ListActiveForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Ride, error) {
	filter := bson.M{
		"status": models.RideStatusActive,
		"$or": bson.A{
			bson.M{"driver_id": userID},
			bson.M{"passengers": userID},
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeError("list user rides", err)
	}
	return decodeAll[models.Ride](ctx, cursor, "ride")
}

func (r *rideRepository) BeginCompletion(ctx context.Context, rideID primitive.ObjectID, completion *models.RideCompletion) (*models.Ride, error) {
	filter := bson.M{"_id": rideID, "status": models.RideStatusActive}
	update := bson.M{"$set": bson.M{
		"status":     models.RideStatusCompleting,
		"completion": completion,
		"updated_at": time.Now(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ride models.Ride
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&ride); err != nil {
		return nil, storeError("begin ride completion", err)
	}
	return &ride, nil
}

func (r *rideRepository) DeleteCompleting(ctx context.Context, rideID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": rideID, "status": models.RideStatusCompleting})
	if err != nil {
		return storeError("delete completed ride", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *rideRepository) ListCompleting(ctx context.Context, cutoff time.Time) ([]*models.Ride, error) {
	filter := bson.M{
		"status":                models.RideStatusCompleting,
		"completion.started_at": bson.M{"$lt": cutoff},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, storeError("list completing rides", err)
	}
	return decodeAll[models.Ride](ctx, cursor, "ride")
}

func containsInsensitive(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
