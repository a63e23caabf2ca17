package services

import (
	"context"
	"errors"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"
	"greenride/internal/validators"
	"greenride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SettlementService completes rides. A ride moves active -> completing ->
// deleted, and every step after the first is idempotent, so a failed or
// interrupted completion is finished by calling it again (or ResumePending).
type SettlementService interface {
	CompleteRide(ctx context.Context, actorID primitive.ObjectID, request *validators.CompleteRideRequest) (*models.CompletedRide, error)
	// ResumePending finishes completions that have been stuck in the
	// completing state for longer than olderThan.
	ResumePending(ctx context.Context, olderThan time.Duration) (int, error)
}

type SettlementConfig struct {
	LockTTL time.Duration
}

type settlementService struct {
	rideRepo      interfaces.RideRepository
	completedRepo interfaces.CompletedRideRepository
	userRepo      interfaces.UserRepository
	safety        SafetyFeedback
	events        EventPublisher
	locker        Locker
	config        SettlementConfig
	logger        *logger.Logger
	now           func() time.Time
}

func NewSettlementService(
	rideRepo interfaces.RideRepository,
	completedRepo interfaces.CompletedRideRepository,
	userRepo interfaces.UserRepository,
	safety SafetyFeedback,
	events EventPublisher,
	locker Locker,
	config SettlementConfig,
	logger *logger.Logger,
) SettlementService {
	if config.LockTTL <= 0 {
		config.LockTTL = utils.RideCompletionLockTTL
	}
	return &settlementService{
		rideRepo:      rideRepo,
		completedRepo: completedRepo,
		userRepo:      userRepo,
		safety:        safety,
		events:        events,
		locker:        locker,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *settlementService) CompleteRide(ctx context.Context, actorID primitive.ObjectID, request *validators.CompleteRideRequest) (*models.CompletedRide, error) {
	if err := validators.ValidateCompleteRide(request).AsError(); err != nil {
		return nil, err
	}

	rideID, err := parseObjectID("ride_id", request.RideID)
	if err != nil {
		return nil, err
	}
	riderID, err := parseObjectID("rider_id", request.RiderID)
	if err != nil {
		return nil, err
	}
	driverID, err := parseObjectID("driver_id", request.DriverID)
	if err != nil {
		return nil, err
	}

	if actorID != riderID && actorID != driverID {
		return nil, utils.NewForbiddenError("only the rider or driver can complete a ride")
	}

	params := &models.RideCompletion{
		RiderID:      riderID,
		DriverID:     driverID,
		DistanceKm:   request.DistanceKm,
		RiderRating:  receivedRating(request.RiderRating),
		DriverRating: receivedRating(request.DriverRating),
	}

	var completed *models.CompletedRide
	err = withLock(ctx, s.locker, utils.CacheRideCompletePrefix+rideID.Hex(), s.config.LockTTL, func() error {
		ride, err := s.begin(ctx, rideID, params)
		if err != nil {
			return err
		}
		completed, err = s.settle(ctx, ride)
		return err
	})
	if err != nil {
		return nil, err
	}

	return completed, nil
}

func (s *settlementService) ResumePending(ctx context.Context, olderThan time.Duration) (int, error) {
	rides, err := s.rideRepo.ListCompleting(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, storeFailure("ride", "list pending completions", err)
	}

	var (
		resumed int
		errs    []error
	)
	for _, pending := range rides {
		rideID := pending.ID
		err := withLock(ctx, s.locker, utils.CacheRideCompletePrefix+rideID.Hex(), s.config.LockTTL, func() error {
			// Re-read under the lock; another worker may have finished it.
			ride, err := s.rideRepo.GetByID(ctx, rideID)
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil
			}
			if err != nil {
				return storeFailure("ride", "get ride", err)
			}
			if ride.Status != models.RideStatusCompleting || ride.Completion == nil {
				return nil
			}
			_, err = s.settle(ctx, ride)
			return err
		})
		if err != nil {
			s.logger.WithRideID(rideID).WithError(err).Warn("Failed to resume ride completion")
			errs = append(errs, err)
			continue
		}
		resumed++
	}

	return resumed, errors.Join(errs...)
}

// begin moves the ride into the completing state, or picks up a completion
// an earlier attempt started. It returns the ride with Completion set.
func (s *settlementService) begin(ctx context.Context, rideID primitive.ObjectID, params *models.RideCompletion) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeFailure("ride", "get ride", err)
	}

	if ride.Status == models.RideStatusActive {
		if ride.DriverID != params.DriverID {
			return nil, utils.NewValidationError("driver does not own this ride")
		}
		if !ride.HasPassenger(params.RiderID) {
			return nil, utils.NewValidationError("rider is not a passenger on this ride")
		}

		params.StartedAt = s.now()
		started, err := s.rideRepo.BeginCompletion(ctx, rideID, params)
		if err == nil {
			return started, nil
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, storeFailure("ride", "begin ride completion", err)
		}

		// Lost the race to another completion; fall through with its state.
		ride, err = s.rideRepo.GetByID(ctx, rideID)
		if err != nil {
			return nil, storeFailure("ride", "get ride", err)
		}
	}

	if ride.Status != models.RideStatusCompleting || ride.Completion == nil {
		return nil, utils.NewNotFoundError("ride")
	}
	if ride.Completion.DriverID != params.DriverID || ride.Completion.RiderID != params.RiderID {
		return nil, utils.NewConflictError("ride is already being completed with different participants")
	}

	s.logger.WithRideID(rideID).Info("Resuming interrupted ride completion")
	return ride, nil
}

// settle runs the idempotent tail of a completion using the parameters
// recorded on the ride.
func (s *settlementService) settle(ctx context.Context, ride *models.Ride) (*models.CompletedRide, error) {
	c := ride.Completion
	co2 := utils.CarbonOffsetKg(c.DistanceKm)

	completed := &models.CompletedRide{
		RideID:       ride.ID,
		RiderID:      c.RiderID,
		DriverID:     c.DriverID,
		Origin:       ride.Origin,
		Destination:  ride.Destination,
		DistanceKm:   c.DistanceKm,
		CO2SavedKg:   co2,
		GreenPoints:  utils.GreenPoints(co2),
		RiderRating:  c.RiderRating,
		DriverRating: c.DriverRating,
		CompletedAt:  c.StartedAt,
	}

	if err := s.completedRepo.Create(ctx, completed); err != nil {
		if !errors.Is(err, interfaces.ErrDuplicate) {
			return nil, storeFailure("completed ride", "record completed ride", err)
		}
		// An earlier attempt wrote the snapshot; settle from that copy.
		completed, err = s.completedRepo.GetByRideID(ctx, ride.ID)
		if err != nil {
			return nil, storeFailure("completed ride", "get completed ride", err)
		}
	}

	credited := make(map[primitive.ObjectID]bool, 2)
	for _, settlement := range []*models.RideSettlement{
		{UserID: completed.RiderID, RideID: ride.ID, GreenPoints: completed.GreenPoints, Rating: completed.RiderRating},
		{UserID: completed.DriverID, RideID: ride.ID, GreenPoints: completed.GreenPoints, Rating: completed.DriverRating},
	} {
		applied, err := s.userRepo.ApplyRideSettlement(ctx, settlement)
		if errors.Is(err, interfaces.ErrNotFound) {
			s.logger.WithUserID(settlement.UserID).WithRideID(ride.ID).Warn("Skipping settlement for missing user")
			continue
		}
		if err != nil {
			return nil, storeFailure("user", "credit ride participant", err)
		}
		credited[settlement.UserID] = applied
	}

	if err := s.completedRepo.MarkSettled(ctx, ride.ID); err != nil {
		return nil, storeFailure("completed ride", "mark ride settled", err)
	}
	completed.Settled = true

	if err := s.rideRepo.DeleteCompleting(ctx, ride.ID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, storeFailure("ride", "remove completed ride", err)
	}

	// Feedback is only sent by the attempt that credited the user, so a
	// resumed completion does not count it twice.
	if credited[completed.RiderID] && isPositive(completed.RiderRating) {
		s.recordPositiveFeedback(ctx, completed.RiderID)
	}
	if credited[completed.DriverID] && isPositive(completed.DriverRating) {
		s.recordPositiveFeedback(ctx, completed.DriverID)
	}

	s.logger.LogRideEvent(ride.ID, utils.EventRideCompleted, map[string]interface{}{
		"distance_km":  completed.DistanceKm,
		"co2_saved_kg": completed.CO2SavedKg,
		"green_points": completed.GreenPoints,
	})

	if s.events != nil {
		recipients := []primitive.ObjectID{completed.RiderID, completed.DriverID}
		if err := s.events.PublishEvent(ctx, utils.EventRideCompleted, recipients, completed); err != nil {
			s.logger.WithRideID(ride.ID).WithError(err).Warn("Failed to publish ride completion")
		}
	}

	return completed, nil
}

func (s *settlementService) recordPositiveFeedback(ctx context.Context, userID primitive.ObjectID) {
	if s.safety == nil {
		return
	}
	if err := s.safety.RecordPositiveFeedback(ctx, userID); err != nil {
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to record positive feedback")
	}
}

// receivedRating drops absent and out-of-range ratings so they never reach
// a running mean.
func receivedRating(r *float64) *float64 {
	if r == nil || !utils.IsValidRating(*r) {
		return nil
	}
	v := *r
	return &v
}

func isPositive(r *float64) bool {
	return r != nil && *r >= utils.PositiveFeedbackRating
}
