package mongodb

import (
	"context"
	"fmt"
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

type safetyRepository struct {
	settings  *mongo.Collection
	incidents *mongo.Collection
}

func NewSafetyRepository(db *mongo.Database) interfaces.SafetyRepository {
	return &safetyRepository{
		settings:  db.Collection(database.CollectionSafetySettings),
		incidents: db.Collection(database.CollectionIncidentReports),
	}
}

// safetyDefaults is the $setOnInsert document for a new settings record,
// minus any field the same update writes with another operator.
func safetyDefaults(now time.Time, except ...string) bson.M {
	d := models.DefaultSafetySettings(primitive.NilObjectID)
	doc := bson.M{
		"emergency_contacts":           bson.A{},
		"live_tracking":                d.LiveTracking,
		"safety_alerts":                d.SafetyAlerts,
		"share_location_with_contacts": d.ShareLocationWithContacts,
		"auto_notify_on_ride_start":    d.AutoNotifyOnRideStart,
		"safety_score":                 d.SafetyScore,
		"total_rides":                  0,
		"safety_reports":               0,
		"positive_feedback":            0,
		"created_at":                   now,
	}
	for _, key := range except {
		delete(doc, key)
	}
	return doc
}

func (r *safetyRepository) upsert(ctx context.Context, userID primitive.ObjectID, update bson.M, action string) (*models.SafetySettings, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var settings models.SafetySettings
	if err := r.settings.FindOneAndUpdate(ctx, bson.M{"user_id": userID}, update, opts).Decode(&settings); err != nil {
		return nil, storeError(action, err)
	}
	return &settings, nil
}

func (r *safetyRepository) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (*models.SafetySettings, error) {
	now := time.Now()
	update := bson.M{
		"$setOnInsert": safetyDefaults(now),
		"$set":         bson.M{"updated_at": now},
	}
	return r.upsert(ctx, userID, update, "get safety settings")
}

func (r *safetyRepository) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs *models.SafetyPreferences) (*models.SafetySettings, error) {
	now := time.Now()
	set := bson.M{"updated_at": now}
	var touched []string

	fields := map[string]*bool{
		"live_tracking":                prefs.LiveTracking,
		"safety_alerts":                prefs.SafetyAlerts,
		"share_location_with_contacts": prefs.ShareLocationWithContacts,
		"auto_notify_on_ride_start":    prefs.AutoNotifyOnRideStart,
	}
	for key, value := range fields {
		if value != nil {
			set[key] = *value
			touched = append(touched, key)
		}
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": safetyDefaults(now, touched...),
	}
	return r.upsert(ctx, userID, update, "update safety preferences")
}

func (r *safetyRepository) AddEmergencyContact(ctx context.Context, userID primitive.ObjectID, contact *models.EmergencyContact, max int) (*models.SafetySettings, error) {
	if contact.ID.IsZero() {
		contact.ID = primitive.NewObjectID()
	}
	if contact.AddedAt.IsZero() {
		contact.AddedAt = time.Now()
	}

	sameName := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(contact.Name) + "$", Options: "i"}
	filter := bson.M{
		"user_id": userID,
		fmt.Sprintf("emergency_contacts.%d", max-1): bson.M{"$exists": false},
		"emergency_contacts.phone":                  bson.M{"$ne": contact.Phone},
		"emergency_contacts.name":                   bson.M{"$not": sameName},
	}
	update := bson.M{
		"$push": bson.M{"emergency_contacts": contact},
		"$set":  bson.M{"updated_at": contact.AddedAt},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var settings models.SafetySettings
	if err := r.settings.FindOneAndUpdate(ctx, filter, update, opts).Decode(&settings); err != nil {
		return nil, storeError("add emergency contact", err)
	}
	return &settings, nil
}

func (r *safetyRepository) RemoveEmergencyContact(ctx context.Context, userID, contactID primitive.ObjectID) (*models.SafetySettings, error) {
	filter := bson.M{"user_id": userID, "emergency_contacts._id": contactID}
	update := bson.M{
		"$pull": bson.M{"emergency_contacts": bson.M{"_id": contactID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var settings models.SafetySettings
	if err := r.settings.FindOneAndUpdate(ctx, filter, update, opts).Decode(&settings); err != nil {
		return nil, storeError("remove emergency contact", err)
	}
	return &settings, nil
}

func (r *safetyRepository) IncrementCounters(ctx context.Context, userID primitive.ObjectID, rides, positive, reports int) (*models.SafetySettings, error) {
	now := time.Now()
	update := bson.M{
		"$inc": bson.M{
			"total_rides":       rides,
			"positive_feedback": positive,
			"safety_reports":    reports,
		},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": safetyDefaults(now, "total_rides", "positive_feedback", "safety_reports"),
	}
	return r.upsert(ctx, userID, update, "increment safety counters")
}

func (r *safetyRepository) SetSafetyScore(ctx context.Context, userID primitive.ObjectID, score float64) (*models.SafetySettings, error) {
	now := time.Now()
	update := bson.M{
		"$set":         bson.M{"safety_score": score, "updated_at": now},
		"$setOnInsert": safetyDefaults(now, "safety_score"),
	}
	return r.upsert(ctx, userID, update, "set safety score")
}

func (r *safetyRepository) CreateIncident(ctx context.Context, report *models.IncidentReport) error {
	report.ID = primitive.NewObjectID()
	report.CreatedAt = time.Now()
	report.UpdatedAt = report.CreatedAt

	_, err := r.incidents.InsertOne(ctx, report)
	return storeError("create incident report", err)
}

func (r *safetyRepository) ListIncidents(ctx context.Context, reporterID primitive.ObjectID) ([]*models.IncidentReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.incidents.Find(ctx, bson.M{"reporter_id": reporterID}, opts)
	if err != nil {
		return nil, storeError("list incident reports", err)
	}
	return decodeAll[models.IncidentReport](ctx, cursor, "incident report")
}

var _ interfaces.SafetyRepository = (*safetyRepository)(nil)
