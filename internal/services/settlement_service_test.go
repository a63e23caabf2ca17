package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"greenride/internal/models"
	"greenride/internal/utils"
	"greenride/internal/validators"
	"greenride/pkg/cache"
	"greenride/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type settlementFixture struct {
	svc       SettlementService
	rides     *fakeRideRepo
	completed *fakeCompletedRepo
	users     *fakeUserRepo
	feedback  *recordingFeedback
	events    *recordingEvents

	rideID, riderID, driverID primitive.ObjectID
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	f := &settlementFixture{
		rides:     newFakeRideRepo(),
		completed: newFakeCompletedRepo(),
		users:     newFakeUserRepo(),
		feedback:  newRecordingFeedback(),
		events:    &recordingEvents{},
	}
	f.svc = NewSettlementService(f.rides, f.completed, f.users, f.feedback, f.events,
		cache.NewLocalLocker(), SettlementConfig{LockTTL: time.Second}, logger.NewNop())

	f.riderID = f.users.add("Rider")
	f.driverID = f.users.add("Driver")

	ride := &models.Ride{
		Origin:         "MG Road",
		Destination:    "HSR Layout",
		DepartureTime:  time.Now(),
		SeatsAvailable: 2,
		SeatsTotal:     2,
		DriverID:       f.driverID,
	}
	require.NoError(t, f.rides.Create(context.Background(), ride))
	_, err := f.rides.AddPassenger(context.Background(), ride.ID, f.riderID)
	require.NoError(t, err)
	f.rideID = ride.ID
	return f
}

func (f *settlementFixture) request(distance float64, riderRating, driverRating *float64) *validators.CompleteRideRequest {
	return &validators.CompleteRideRequest{
		RideID:       f.rideID.Hex(),
		RiderID:      f.riderID.Hex(),
		DriverID:     f.driverID.Hex(),
		DistanceKm:   distance,
		RiderRating:  riderRating,
		DriverRating: driverRating,
	}
}

func TestCompleteRideSettlesBothParticipants(t *testing.T) {
	f := newSettlementFixture(t)

	completed, err := f.svc.CompleteRide(context.Background(), f.riderID, f.request(10, nil, float64Ptr(5)))
	require.NoError(t, err)

	assert.InDelta(t, 1.21, completed.CO2SavedKg, 1e-9)
	assert.Equal(t, 12, completed.GreenPoints)
	assert.True(t, completed.Settled)

	driver := f.users.get(f.driverID)
	assert.Equal(t, 12, driver.GreenPoints)
	assert.Equal(t, 5.0, driver.Rating)
	assert.Equal(t, 1, driver.RatingsCount)

	rider := f.users.get(f.riderID)
	assert.Equal(t, 12, rider.GreenPoints)
	assert.Equal(t, 0, rider.RatingsCount, "unrated rider keeps an empty mean")

	assert.Zero(t, f.rides.count(), "completed ride leaves the active store")
	assert.Equal(t, 1, f.completed.count())
	assert.Equal(t, 1, f.feedback.count(f.driverID))
	assert.Equal(t, 0, f.feedback.count(f.riderID))
	assert.Equal(t, 1, f.events.count(utils.EventRideCompleted))
}

func TestCompleteRideTwice(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()

	_, err := f.svc.CompleteRide(ctx, f.driverID, f.request(10, float64Ptr(4), float64Ptr(4)))
	require.NoError(t, err)

	_, err = f.svc.CompleteRide(ctx, f.driverID, f.request(10, float64Ptr(4), float64Ptr(4)))
	assert.ErrorIs(t, err, utils.ErrNotFoundKind)

	assert.Equal(t, 1, f.completed.count())
	assert.Equal(t, 12, f.users.get(f.riderID).GreenPoints)
	assert.Equal(t, 1, f.users.get(f.riderID).RatingsCount)
}

func TestCompleteRideConcurrent(t *testing.T) {
	f := newSettlementFixture(t)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		notFound  int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CompleteRide(context.Background(), f.riderID, f.request(10, nil, float64Ptr(3)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, utils.ErrNotFoundKind):
				notFound++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 7, notFound)
	assert.Equal(t, 1, f.completed.count())
	assert.Equal(t, 12, f.users.get(f.driverID).GreenPoints)
	assert.Equal(t, 1, f.users.get(f.driverID).RatingsCount)
}

func TestCompleteRideRejectsOutsiders(t *testing.T) {
	f := newSettlementFixture(t)

	_, err := f.svc.CompleteRide(context.Background(), primitive.NewObjectID(), f.request(10, nil, nil))
	assert.ErrorIs(t, err, utils.ErrForbiddenKind)
	assert.Equal(t, 1, f.rides.count())
}

func TestCompleteRideChecksParticipants(t *testing.T) {
	f := newSettlementFixture(t)
	stranger := f.users.add("Stranger")

	req := f.request(10, nil, nil)
	req.RiderID = stranger.Hex()
	_, err := f.svc.CompleteRide(context.Background(), stranger, req)
	assert.ErrorIs(t, err, utils.ErrValidation)

	req = f.request(10, nil, nil)
	req.DriverID = stranger.Hex()
	_, err = f.svc.CompleteRide(context.Background(), f.riderID, req)
	assert.ErrorIs(t, err, utils.ErrValidation)

	ride, err := f.rides.GetByID(context.Background(), f.rideID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusActive, ride.Status)
}

func TestCompleteRideValidation(t *testing.T) {
	f := newSettlementFixture(t)

	_, err := f.svc.CompleteRide(context.Background(), f.riderID, f.request(0, nil, nil))
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.CompleteRide(context.Background(), f.riderID, f.request(5, float64Ptr(7), nil))
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = f.svc.CompleteRide(context.Background(), f.riderID, f.request(1e300, nil, nil))
	assert.ErrorIs(t, err, utils.ErrValidation)
	assert.Zero(t, f.users.get(f.riderID).GreenPoints)

	req := f.request(5, nil, nil)
	req.DriverID = req.RiderID
	_, err = f.svc.CompleteRide(context.Background(), f.riderID, req)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestCompleteRideSkipsMissingUser(t *testing.T) {
	f := newSettlementFixture(t)
	f.users.mu.Lock()
	delete(f.users.users, f.driverID)
	f.users.mu.Unlock()

	completed, err := f.svc.CompleteRide(context.Background(), f.riderID, f.request(10, nil, nil))
	require.NoError(t, err)
	assert.True(t, completed.Settled)
	assert.Equal(t, 12, f.users.get(f.riderID).GreenPoints)
}

func TestInterruptedCompletionResumes(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	svc := f.svc.(*settlementService)

	start := time.Now()
	svc.now = func() time.Time { return start }
	f.completed.failMarkSettled = errors.New("connection reset")

	_, err := f.svc.CompleteRide(ctx, f.riderID, f.request(10, float64Ptr(5), float64Ptr(5)))
	assert.ErrorIs(t, err, utils.ErrDependency)

	ride, err := f.rides.GetByID(ctx, f.rideID)
	require.NoError(t, err)
	assert.Equal(t, models.RideStatusCompleting, ride.Status)

	// Too recent to pick up.
	resumed, err := f.svc.ResumePending(ctx, time.Minute)
	require.NoError(t, err)
	assert.Zero(t, resumed)

	svc.now = func() time.Time { return start.Add(time.Hour) }
	resumed, err = f.svc.ResumePending(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed)

	assert.Zero(t, f.rides.count())
	stored, err := f.completed.GetByRideID(ctx, f.rideID)
	require.NoError(t, err)
	assert.True(t, stored.Settled)

	for _, id := range []primitive.ObjectID{f.riderID, f.driverID} {
		user := f.users.get(id)
		assert.Equal(t, 12, user.GreenPoints, "points are credited once")
		assert.Equal(t, 1, user.RatingsCount, "rating is folded in once")
	}
}

func TestRetryAfterInterruptionUsesRecordedParameters(t *testing.T) {
	f := newSettlementFixture(t)
	ctx := context.Background()
	f.completed.failMarkSettled = errors.New("timeout")

	_, err := f.svc.CompleteRide(ctx, f.riderID, f.request(10, nil, nil))
	require.Error(t, err)

	// Different distance on retry; the first attempt's parameters win.
	completed, err := f.svc.CompleteRide(ctx, f.driverID, f.request(50, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 10.0, completed.DistanceKm)
	assert.Equal(t, 12, f.users.get(f.riderID).GreenPoints)
}

func TestPositiveFeedbackThreshold(t *testing.T) {
	assert.True(t, isPositive(float64Ptr(4)))
	assert.True(t, isPositive(float64Ptr(5)))
	assert.False(t, isPositive(float64Ptr(3.9)))
	assert.False(t, isPositive(nil))

	assert.Nil(t, receivedRating(float64Ptr(0)))
	assert.Nil(t, receivedRating(float64Ptr(6)))
	assert.Equal(t, 2.5, *receivedRating(float64Ptr(2.5)))
}
