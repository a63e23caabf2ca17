package mongodb

import (
	"context"
	"testing"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserRepositoryApplyRideSettlement(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	rating := 4.0

	mt.Run("first application", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		applied, err := repo.ApplyRideSettlement(context.Background(), &models.RideSettlement{
			UserID:      primitive.NewObjectID(),
			RideID:      primitive.NewObjectID(),
			GreenPoints: 12,
			Rating:      &rating,
		})
		require.NoError(mt, err)
		assert.True(mt, applied)
	})

	mt.Run("already settled", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, nil)
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		applied, err := repo.ApplyRideSettlement(context.Background(), &models.RideSettlement{
			UserID: primitive.NewObjectID(),
			RideID: primitive.NewObjectID(),
		})
		require.NoError(mt, err)
		assert.False(mt, applied)
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, nil)
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := repo.ApplyRideSettlement(context.Background(), &models.RideSettlement{
			UserID: primitive.NewObjectID(),
			RideID: primitive.NewObjectID(),
		})
		assert.ErrorIs(mt, err, interfaces.ErrNotFound)
	})
}

func TestUserRepositoryAddGreenPoints(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns updated user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, nil)
		userID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: userID},
			{Key: "name", Value: "Asha"},
			{Key: "green_points", Value: 150},
		}}))

		user, err := repo.AddGreenPoints(context.Background(), userID, 50)
		require.NoError(mt, err)
		assert.Equal(mt, userID, user.ID)
		assert.Equal(mt, 150, user.GreenPoints)
	})

	mt.Run("unknown user", func(mt *mtest.T) {
		repo := NewUserRepository(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.AddGreenPoints(context.Background(), primitive.NewObjectID(), 50)
		assert.ErrorIs(mt, err, interfaces.ErrNotFound)
	})
}

func TestPaymentMethodRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("second default violates index", func(mt *mtest.T) {
		repo := NewPaymentMethodRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: payment_methods index: one_default_per_user",
		}))

		err := repo.Create(context.Background(), &models.PaymentMethod{
			UserID: primitive.NewObjectID(),
			Type:   models.PaymentMethodUPI,
			State:  models.PaymentMethodStateDefault,
		})
		assert.ErrorIs(mt, err, interfaces.ErrDuplicate)
	})

	mt.Run("short wallet", func(mt *mtest.T) {
		repo := NewPaymentMethodRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.DebitBalance(context.Background(), primitive.NewObjectID(), 100, -100)
		assert.ErrorIs(mt, err, interfaces.ErrNotFound)
	})

	mt.Run("ensure eco credits reports insert", func(mt *mtest.T) {
		repo := NewPaymentMethodRepository(mt.DB)
		userID, methodID := primitive.NewObjectID(), primitive.NewObjectID()
		ns := mt.DB.Name() + ".payment_methods"

		mt.AddMockResponses(
			mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: 1},
				bson.E{Key: "nModified", Value: 0},
				bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: methodID}}}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: methodID},
				{Key: "user_id", Value: userID},
				{Key: "type", Value: string(models.PaymentMethodEcoCredits)},
				{Key: "state", Value: string(models.PaymentMethodStateActive)},
				{Key: "credits", Value: 0},
			}),
		)

		method, created, err := repo.EnsureEcoCredits(context.Background(), userID)
		require.NoError(mt, err)
		assert.True(mt, created)
		assert.Equal(mt, methodID, method.ID)
		assert.True(mt, method.IsActive())
	})
}

func TestTransactionRepositoryTotals(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no transactions", func(mt *mtest.T) {
		repo := NewTransactionRepository(mt.DB)
		ns := mt.DB.Name() + ".transactions"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		totals, err := repo.Totals(context.Background(), primitive.NewObjectID(), time.Time{})
		require.NoError(mt, err)
		assert.Equal(mt, &models.GreenPeriodStats{}, totals)
	})

	mt.Run("grouped totals", func(mt *mtest.T) {
		repo := NewTransactionRepository(mt.DB)
		ns := mt.DB.Name() + ".transactions"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: nil},
			{Key: "co2_saved_kg", Value: 4.2},
			{Key: "green_points_earned", Value: 21},
			{Key: "rides_completed", Value: 2},
			{Key: "money_spent", Value: 180.0},
		}))

		totals, err := repo.Totals(context.Background(), primitive.NewObjectID(), time.Now().AddDate(0, -1, 0))
		require.NoError(mt, err)
		assert.Equal(mt, 2, totals.RidesCompleted)
		assert.Equal(mt, 21, totals.GreenPointsEarned)
		assert.InDelta(mt, 4.2, totals.CO2SavedKg, 1e-9)
	})
}

func TestSettingsRepositoryAddAchievement(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate type", func(mt *mtest.T) {
		repo := NewSettingsRepository(mt.DB)
		ns := mt.DB.Name() + ".user_settings"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		_, err := repo.AddAchievement(context.Background(), primitive.NewObjectID(), &models.Achievement{
			Type: "first_ride", Name: "First Ride", Description: "Completed a ride", Icon: "leaf",
		})
		assert.ErrorIs(mt, err, interfaces.ErrDuplicate)
	})
}

func TestSafetyDefaultsOmitsOtherOperatorFields(t *testing.T) {
	doc := safetyDefaults(time.Now(), "total_rides", "safety_score")

	assert.NotContains(t, doc, "total_rides")
	assert.NotContains(t, doc, "safety_score")
	assert.Equal(t, true, doc["live_tracking"])
	assert.Equal(t, bson.A{}, doc["emergency_contacts"])
}
