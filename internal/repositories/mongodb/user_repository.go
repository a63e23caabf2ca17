package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCacheTTL = 15 * time.Minute

type userRepository struct {
	collection *mongo.Collection
	cache      CacheService
}

func NewUserRepository(db *mongo.Database, cache CacheService) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(database.CollectionUsers),
		cache:      cache,
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	_, err := r.collection.InsertOne(ctx, user)
	return storeError("create user", err)
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	if user := r.getUserFromCache(ctx, id); user != nil {
		return user, nil
	}

	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, storeError("get user", err)
	}

	r.cacheUser(ctx, &user)
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&user)
	if err != nil {
		return nil, storeError("get user by email", err)
	}
	return &user, nil
}

func (r *userRepository) ApplyRideSettlement(ctx context.Context, s *models.RideSettlement) (bool, error) {
	set := bson.M{
		"green_points": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$green_points", 0}}, s.GreenPoints}},
		"settled_rides": bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$settled_rides", bson.A{}}},
			bson.A{s.RideID},
		}},
		"updated_at": time.Now(),
	}

	if s.Rating != nil {
		addRating(set, *s.Rating)
	}

	filter := bson.M{"_id": s.UserID, "settled_rides": bson.M{"$ne": s.RideID}}
	update := mongo.Pipeline{bson.D{{Key: "$set", Value: set}}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, storeError("apply ride settlement", err)
	}
	r.invalidateUserCache(ctx, s.UserID)

	if result.MatchedCount == 1 {
		return true, nil
	}

	// Either the user is gone or this ride was already credited.
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": s.UserID})
	if err != nil {
		return false, storeError("check user", err)
	}
	if n == 0 {
		return false, interfaces.ErrNotFound
	}
	return false, nil
}

func (r *userRepository) ApplyRating(ctx context.Context, userID primitive.ObjectID, rating float64) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	addRating(set, rating)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := mongo.Pipeline{bson.D{{Key: "$set", Value: set}}}

	var user models.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&user); err != nil {
		return nil, storeError("apply rating", err)
	}
	r.invalidateUserCache(ctx, userID)
	return &user, nil
}

func (r *userRepository) AddGreenPoints(ctx context.Context, userID primitive.ObjectID, points int) (*models.User, error) {
	update := bson.M{
		"$inc": bson.M{"green_points": points},
		"$set": bson.M{"updated_at": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&user); err != nil {
		return nil, storeError("add green points", err)
	}
	r.invalidateUserCache(ctx, userID)
	return &user, nil
}

// addRating adds the running-mean update for rating to a pipeline $set.
// Every expression in one $set stage sees the pre-update document, so
// rating and ratings_count both use the old count.
func addRating(set bson.M, rating float64) {
	count := bson.M{"$ifNull": bson.A{"$ratings_count", 0}}
	mean := bson.M{"$ifNull": bson.A{"$rating", 0}}
	set["rating"] = bson.M{"$divide": bson.A{
		bson.M{"$add": bson.A{bson.M{"$multiply": bson.A{mean, count}}, rating}},
		bson.M{"$add": bson.A{count, 1}},
	}}
	set["ratings_count"] = bson.M{"$add": bson.A{count, 1}}
}

func (r *userRepository) cacheKey(id primitive.ObjectID) string {
	return fmt.Sprintf("user:%s", id.Hex())
}

func (r *userRepository) getUserFromCache(ctx context.Context, id primitive.ObjectID) *models.User {
	if r.cache == nil {
		return nil
	}
	var user models.User
	if err := r.cache.Get(ctx, r.cacheKey(id), &user); err != nil {
		return nil
	}
	return &user
}

func (r *userRepository) cacheUser(ctx context.Context, user *models.User) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Set(ctx, r.cacheKey(user.ID), user, userCacheTTL)
}

func (r *userRepository) invalidateUserCache(ctx context.Context, id primitive.ObjectID) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, r.cacheKey(id))
}
