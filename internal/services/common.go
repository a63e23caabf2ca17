package services

import (
	"context"
	"errors"
	"time"

	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Locker serialises work on a key. Release must be safe to call once the
// lock has expired.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// EventPublisher pushes realtime events to connected users. Delivery is
// best effort.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, recipients []primitive.ObjectID, data interface{}) error
}

// SafetyFeedback receives positive-feedback signals from settlement.
type SafetyFeedback interface {
	RecordPositiveFeedback(ctx context.Context, userID primitive.ObjectID) error
}

// storeFailure translates a repository error. A missing document becomes a
// NotFound for resource; anything else is a retryable dependency failure.
func storeFailure(resource, action string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, interfaces.ErrNotFound):
		return utils.NewNotFoundError(resource)
	default:
		return utils.NewDependencyError("failed to "+action, err)
	}
}

func parseObjectID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, utils.NewValidationError("invalid " + field)
	}
	return id, nil
}

// withLock runs fn holding key when a locker is configured.
func withLock(ctx context.Context, locker Locker, key string, ttl time.Duration, fn func() error) error {
	if locker == nil {
		return fn()
	}

	release, err := locker.Acquire(ctx, key, ttl)
	if err != nil {
		return utils.NewDependencyError("failed to acquire lock", err)
	}
	defer release()

	return fn()
}
