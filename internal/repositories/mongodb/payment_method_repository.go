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

var activeStates = bson.M{"$in": bson.A{models.PaymentMethodStateDefault, models.PaymentMethodStateActive}}

type paymentMethodRepository struct {
	collection *mongo.Collection
}

func NewPaymentMethodRepository(db *mongo.Database) interfaces.PaymentMethodRepository {
	return &paymentMethodRepository{
		collection: db.Collection(database.CollectionPaymentMethods),
	}
}

func (r *paymentMethodRepository) Create(ctx context.Context, method *models.PaymentMethod) error {
	method.ID = primitive.NewObjectID()
	if method.State == "" {
		method.State = models.PaymentMethodStateActive
	}
	method.CreatedAt = time.Now()
	method.UpdatedAt = method.CreatedAt

	_, err := r.collection.InsertOne(ctx, method)
	return storeError("create payment method", err)
}

func (r *paymentMethodRepository) GetActive(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	filter := bson.M{"_id": id, "user_id": userID, "state": activeStates}
	if err := r.collection.FindOne(ctx, filter).Decode(&method); err != nil {
		return nil, storeError("get payment method", err)
	}
	return &method, nil
}

func (r *paymentMethodRepository) ListActive(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error) {
	// "default" sorts after "active", so descending state puts the default
	// method first.
	opts := options.Find().SetSort(bson.D{
		{Key: "state", Value: -1},
		{Key: "created_at", Value: -1},
	})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "state": activeStates}, opts)
	if err != nil {
		return nil, storeError("list payment methods", err)
	}
	return decodeAll[models.PaymentMethod](ctx, cursor, "payment method")
}

func (r *paymentMethodRepository) CountActive(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "state": activeStates})
	if err != nil {
		return 0, storeError("count payment methods", err)
	}
	return n, nil
}

func (r *paymentMethodRepository) DemoteDefaults(ctx context.Context, userID, keep primitive.ObjectID) error {
	filter := bson.M{
		"user_id": userID,
		"state":   models.PaymentMethodStateDefault,
		"_id":     bson.M{"$ne": keep},
	}
	update := bson.M{"$set": bson.M{
		"state":      models.PaymentMethodStateActive,
		"updated_at": time.Now(),
	}}

	_, err := r.collection.UpdateMany(ctx, filter, update)
	return storeError("demote default payment methods", err)
}

func (r *paymentMethodRepository) Promote(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	filter := bson.M{"_id": id, "user_id": userID, "state": activeStates}
	return r.setState(ctx, filter, nil, models.PaymentMethodStateDefault, options.After, "promote payment method")
}

func (r *paymentMethodRepository) PromoteNewest(ctx context.Context, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	filter := bson.M{"user_id": userID, "state": models.PaymentMethodStateActive}
	sort := bson.D{{Key: "created_at", Value: -1}}
	return r.setState(ctx, filter, sort, models.PaymentMethodStateDefault, options.After, "promote newest payment method")
}

func (r *paymentMethodRepository) Deactivate(ctx context.Context, id, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	filter := bson.M{"_id": id, "user_id": userID, "state": activeStates}
	return r.setState(ctx, filter, nil, models.PaymentMethodStateInactive, options.Before, "deactivate payment method")
}

func (r *paymentMethodRepository) setState(ctx context.Context, filter bson.M, sort bson.D, state models.PaymentMethodState, ret options.ReturnDocument, action string) (*models.PaymentMethod, error) {
	update := bson.M{"$set": bson.M{"state": state, "updated_at": time.Now()}}

	opts := options.FindOneAndUpdate().SetReturnDocument(ret)
	if sort != nil {
		opts.SetSort(sort)
	}

	var method models.PaymentMethod
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&method); err != nil {
		return nil, storeError(action, err)
	}
	return &method, nil
}

func (r *paymentMethodRepository) DebitBalance(ctx context.Context, id primitive.ObjectID, amount, delta float64) (*models.PaymentMethod, error) {
	filter := bson.M{
		"_id":     id,
		"type":    models.PaymentMethodGreenWallet,
		"state":   activeStates,
		"balance": bson.M{"$gte": amount},
	}
	return r.debit(ctx, filter, bson.M{"balance": delta}, "debit wallet")
}

func (r *paymentMethodRepository) DebitCredits(ctx context.Context, id primitive.ObjectID, needed, delta int) (*models.PaymentMethod, error) {
	filter := bson.M{
		"_id":     id,
		"type":    models.PaymentMethodEcoCredits,
		"state":   activeStates,
		"credits": bson.M{"$gte": needed},
	}
	return r.debit(ctx, filter, bson.M{"credits": delta}, "debit eco credits")
}

func (r *paymentMethodRepository) debit(ctx context.Context, filter, inc bson.M, action string) (*models.PaymentMethod, error) {
	now := time.Now()
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{"last_used_at": now, "updated_at": now},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var method models.PaymentMethod
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&method); err != nil {
		return nil, storeError(action, err)
	}
	return &method, nil
}

func (r *paymentMethodRepository) AdjustBalance(ctx context.Context, id primitive.ObjectID, delta float64) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"balance": delta},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return storeError("adjust wallet balance", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *paymentMethodRepository) AdjustCredits(ctx context.Context, id primitive.ObjectID, delta int) (*models.PaymentMethod, error) {
	update := bson.M{
		"$inc": bson.M{"credits": delta},
		"$set": bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var method models.PaymentMethod
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&method); err != nil {
		return nil, storeError("adjust eco credits", err)
	}
	return &method, nil
}

func (r *paymentMethodRepository) EnsureEcoCredits(ctx context.Context, userID primitive.ObjectID) (*models.PaymentMethod, bool, error) {
	filter := bson.M{
		"user_id": userID,
		"type":    models.PaymentMethodEcoCredits,
		"state":   activeStates,
	}
	now := time.Now()
	update := bson.M{"$setOnInsert": bson.M{
		"state":      models.PaymentMethodStateActive,
		"nickname":   "Eco Credits",
		"balance":    0.0,
		"credits":    0,
		"created_at": now,
		"updated_at": now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, false, storeError("ensure eco credits", err)
	}

	var method models.PaymentMethod
	if err := r.collection.FindOne(ctx, filter).Decode(&method); err != nil {
		return nil, false, storeError("get eco credits", err)
	}
	return &method, result.UpsertedID != nil, nil
}
