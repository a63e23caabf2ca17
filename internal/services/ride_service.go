package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"
	"greenride/internal/validators"
	"greenride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type RideService interface {
	CreateRide(ctx context.Context, driverID primitive.ObjectID, request *validators.CreateRideRequest) (*models.Ride, error)
	GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error)
	SearchRides(ctx context.Context, request *validators.SearchRidesRequest) ([]*models.Ride, error)
	FindMatches(ctx context.Context, request *validators.FindMatchesRequest) ([]*models.Ride, error)
	JoinRide(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error)
	GetRideHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.RideHistoryEntry, error)
}

type rideService struct {
	rideRepo      interfaces.RideRepository
	completedRepo interfaces.CompletedRideRepository
	events        EventPublisher
	logger        *logger.Logger
}

func NewRideService(
	rideRepo interfaces.RideRepository,
	completedRepo interfaces.CompletedRideRepository,
	events EventPublisher,
	logger *logger.Logger,
) RideService {
	return &rideService{
		rideRepo:      rideRepo,
		completedRepo: completedRepo,
		events:        events,
		logger:        logger,
	}
}

func (s *rideService) CreateRide(ctx context.Context, driverID primitive.ObjectID, request *validators.CreateRideRequest) (*models.Ride, error) {
	if err := validators.ValidateCreateRide(request).AsError(); err != nil {
		return nil, err
	}

	ride := &models.Ride{
		Origin:         strings.TrimSpace(request.Origin),
		Destination:    strings.TrimSpace(request.Destination),
		DepartureTime:  request.DepartureTime,
		SeatsAvailable: request.SeatsAvailable,
		SeatsTotal:     request.SeatsAvailable,
		VehicleType:    request.VehicleType,
		DriverID:       driverID,
		Passengers:     []primitive.ObjectID{},
		DistanceKm:     request.DistanceKm,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, storeFailure("ride", "create ride", err)
	}

	s.logger.LogRideEvent(ride.ID, utils.EventRideCreated, map[string]interface{}{
		"driver_id": driverID.Hex(),
		"seats":     ride.SeatsTotal,
	})
	return ride, nil
}

func (s *rideService) GetRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeFailure("ride", "get ride", err)
	}
	return ride, nil
}

func (s *rideService) SearchRides(ctx context.Context, request *validators.SearchRidesRequest) ([]*models.Ride, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}

	rides, err := s.rideRepo.Search(ctx, models.RideSearchFilter{
		Origin:      strings.TrimSpace(request.Origin),
		Destination: strings.TrimSpace(request.Destination),
		VehicleType: request.VehicleType,
	})
	if err != nil {
		return nil, storeFailure("ride", "search rides", err)
	}
	return rides, nil
}

// FindMatches is a search on origin and destination only.
func (s *rideService) FindMatches(ctx context.Context, request *validators.FindMatchesRequest) ([]*models.Ride, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}

	rides, err := s.rideRepo.Search(ctx, models.RideSearchFilter{
		Origin:      strings.TrimSpace(request.Origin),
		Destination: strings.TrimSpace(request.Destination),
	})
	if err != nil {
		return nil, storeFailure("ride", "find matches", err)
	}
	return rides, nil
}

func (s *rideService) JoinRide(ctx context.Context, rideID, userID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.AddPassenger(ctx, rideID, userID)
	if err == nil {
		s.logger.WithUserID(userID).LogRideEvent(rideID, utils.EventRideJoined, map[string]interface{}{
			"seats_available": ride.SeatsAvailable,
		})
		s.publish(ctx, utils.EventRideJoined, []primitive.ObjectID{ride.DriverID}, ride)
		return ride, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, storeFailure("ride", "join ride", err)
	}

	// The conditional update matched nothing. Work out which precondition
	// failed from the current document.
	current, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeFailure("ride", "get ride", err)
	}

	switch {
	case current.Status != models.RideStatusActive:
		return nil, utils.NewNotFoundError("ride")
	case current.SeatsAvailable <= 0:
		return nil, utils.NewCapacityError(utils.ErrNoSeatsAvailable)
	case current.DriverID == userID:
		return nil, utils.NewAlreadyJoinedError("driver cannot join their own ride")
	case current.HasPassenger(userID):
		return nil, utils.NewAlreadyJoinedError(utils.ErrAlreadyJoinedRide)
	default:
		return nil, utils.NewConflictError("ride changed while joining, retry")
	}
}

func (s *rideService) GetRideHistory(ctx context.Context, userID primitive.ObjectID) ([]*models.RideHistoryEntry, error) {
	var (
		active    []*models.Ride
		completed []*models.CompletedRide
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = s.rideRepo.ListActiveForUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = s.completedRepo.ListForUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeFailure("ride", "get ride history", err)
	}

	history := make([]*models.RideHistoryEntry, 0, len(active)+len(completed))
	for _, ride := range active {
		history = append(history, &models.RideHistoryEntry{
			Lifecycle: models.RideLifecycleActive,
			Ride:      ride,
			CreatedAt: ride.CreatedAt,
		})
	}
	for _, ride := range completed {
		history = append(history, &models.RideHistoryEntry{
			Lifecycle:     models.RideLifecycleCompleted,
			CompletedRide: ride,
			CreatedAt:     ride.CreatedAt,
		})
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	return history, nil
}

func (s *rideService) publish(ctx context.Context, event string, recipients []primitive.ObjectID, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, event, recipients, data); err != nil {
		s.logger.WithError(err).WithField("event", event).Warn("Failed to publish ride event")
	}
}
