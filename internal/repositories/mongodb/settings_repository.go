package mongodb

import (
	"context"
	"errors"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type settingsRepository struct {
	collection *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) interfaces.SettingsRepository {
	return &settingsRepository{
		collection: db.Collection(database.CollectionUserSettings),
	}
}

// editableSections are the top-level fields a user may overwrite.
func editableSections(s *models.UserSettings) bson.M {
	return bson.M{
		"vehicle_preferences": s.VehiclePreferences,
		"notifications":       s.Notifications,
		"ride_preferences":    s.RidePreferences,
		"privacy":             s.Privacy,
		"app_preferences":     s.AppPreferences,
		"green_goals":         s.GreenGoals,
	}
}

func (r *settingsRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, upsert bool, action string) (*models.UserSettings, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(upsert).
		SetReturnDocument(options.After)

	var settings models.UserSettings
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&settings); err != nil {
		return nil, storeError(action, err)
	}
	return &settings, nil
}

func (r *settingsRepository) GetOrCreate(ctx context.Context, defaults *models.UserSettings) (*models.UserSettings, error) {
	now := time.Now()
	insert := editableSections(defaults)
	insert["achievements"] = bson.A{}
	insert["created_at"] = now
	insert["updated_at"] = now

	return r.findOneAndUpdate(ctx,
		bson.M{"user_id": defaults.UserID},
		bson.M{"$setOnInsert": insert},
		true, "get user settings")
}

func (r *settingsRepository) Get(ctx context.Context, userID primitive.ObjectID) (*models.UserSettings, error) {
	var settings models.UserSettings
	if err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&settings); err != nil {
		return nil, storeError("get user settings", err)
	}
	return &settings, nil
}

func (r *settingsRepository) UpdateSections(ctx context.Context, userID primitive.ObjectID, sections map[string]interface{}) (*models.UserSettings, error) {
	set := bson.M{"updated_at": time.Now()}
	for key, value := range sections {
		set[key] = value
	}

	return r.findOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set},
		false, "update user settings")
}

func (r *settingsRepository) AddAchievement(ctx context.Context, userID primitive.ObjectID, a *models.Achievement) (*models.UserSettings, error) {
	if a.DateEarned.IsZero() {
		a.DateEarned = time.Now()
	}

	filter := bson.M{"user_id": userID, "achievements.type": bson.M{"$ne": a.Type}}
	update := bson.M{
		"$push": bson.M{"achievements": a},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	settings, err := r.findOneAndUpdate(ctx, filter, update, false, "add achievement")
	if !errors.Is(err, interfaces.ErrNotFound) {
		return settings, err
	}

	n, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, storeError("check user settings", err)
	}
	if n == 0 {
		return nil, interfaces.ErrNotFound
	}
	return nil, interfaces.ErrDuplicate
}

// Reset restores the editable sections. Earned achievements are kept.
func (r *settingsRepository) Reset(ctx context.Context, defaults *models.UserSettings) (*models.UserSettings, error) {
	now := time.Now()
	set := editableSections(defaults)
	set["updated_at"] = now

	return r.findOneAndUpdate(ctx,
		bson.M{"user_id": defaults.UserID},
		bson.M{
			"$set":         set,
			"$setOnInsert": bson.M{"achievements": bson.A{}, "created_at": now},
		},
		true, "reset user settings")
}
