package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"
	"greenride/internal/validators"
	"greenride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentMethodService keeps each user's instruments. Every user with an
// active method has exactly one default; writes that move the default are
// serialised per user and the store rejects a second default outright.
type PaymentMethodService interface {
	AddMethod(ctx context.Context, userID primitive.ObjectID, request *validators.AddPaymentMethodRequest) (*models.PaymentMethod, error)
	ListMethods(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error)
	SetDefault(ctx context.Context, userID, methodID primitive.ObjectID) (*models.PaymentMethod, error)
	DeleteMethod(ctx context.Context, userID, methodID primitive.ObjectID) error
}

type paymentMethodService struct {
	methodRepo interfaces.PaymentMethodRepository
	locker     Locker
	lockTTL    time.Duration
	logger     *logger.Logger
}

func NewPaymentMethodService(methodRepo interfaces.PaymentMethodRepository, locker Locker, lockTTL time.Duration, logger *logger.Logger) PaymentMethodService {
	if lockTTL <= 0 {
		lockTTL = utils.PaymentMethodLockTTL
	}
	return &paymentMethodService{
		methodRepo: methodRepo,
		locker:     locker,
		lockTTL:    lockTTL,
		logger:     logger,
	}
}

func (s *paymentMethodService) lock(ctx context.Context, userID primitive.ObjectID, fn func() error) error {
	return withLock(ctx, s.locker, utils.CachePaymentMethodPrefix+userID.Hex(), s.lockTTL, fn)
}

func (s *paymentMethodService) AddMethod(ctx context.Context, userID primitive.ObjectID, request *validators.AddPaymentMethodRequest) (*models.PaymentMethod, error) {
	if err := validators.ValidateAddPaymentMethod(request).AsError(); err != nil {
		return nil, err
	}

	method := newPaymentMethod(userID, request)

	err := s.lock(ctx, userID, func() error {
		count, err := s.methodRepo.CountActive(ctx, userID)
		if err != nil {
			return storeFailure("payment method", "count payment methods", err)
		}

		// The first active method is the default whatever the caller asked.
		makeDefault := count == 0 || request.IsDefault
		if makeDefault && count > 0 {
			if err := s.methodRepo.DemoteDefaults(ctx, userID, primitive.NilObjectID); err != nil {
				return storeFailure("payment method", "demote default payment method", err)
			}
		}
		if makeDefault {
			method.State = models.PaymentMethodStateDefault
		}

		if err := s.methodRepo.Create(ctx, method); err != nil {
			if errors.Is(err, interfaces.ErrDuplicate) {
				return utils.NewConflictError("another default payment method was set concurrently")
			}
			return storeFailure("payment method", "create payment method", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithUserID(userID).WithFields(map[string]interface{}{
		"payment_method_id": method.ID.Hex(),
		"type":              method.Type,
		"default":           method.IsDefault(),
	}).Info("Payment method added")
	return method, nil
}

func (s *paymentMethodService) ListMethods(ctx context.Context, userID primitive.ObjectID) ([]*models.PaymentMethod, error) {
	methods, err := s.methodRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, storeFailure("payment method", "list payment methods", err)
	}
	if len(methods) == 0 || methods[0].IsDefault() {
		return methods, nil
	}

	// A crash between demote and promote can leave no default. Repair it.
	err = s.lock(ctx, userID, func() error {
		_, err := s.methodRepo.PromoteNewest(ctx, userID)
		switch {
		case err == nil, errors.Is(err, interfaces.ErrNotFound):
			return nil
		case errors.Is(err, interfaces.ErrDuplicate):
			// Someone else set a default in the meantime.
			return nil
		default:
			return storeFailure("payment method", "promote payment method", err)
		}
	})
	if err != nil {
		return nil, err
	}

	methods, err = s.methodRepo.ListActive(ctx, userID)
	if err != nil {
		return nil, storeFailure("payment method", "list payment methods", err)
	}
	return methods, nil
}

func (s *paymentMethodService) SetDefault(ctx context.Context, userID, methodID primitive.ObjectID) (*models.PaymentMethod, error) {
	var method *models.PaymentMethod

	err := s.lock(ctx, userID, func() error {
		current, err := s.methodRepo.GetActive(ctx, methodID, userID)
		if err != nil {
			return storeFailure("payment method", "get payment method", err)
		}
		if current.IsDefault() {
			method = current
			return nil
		}

		if err := s.methodRepo.DemoteDefaults(ctx, userID, methodID); err != nil {
			return storeFailure("payment method", "demote default payment method", err)
		}

		method, err = s.methodRepo.Promote(ctx, methodID, userID)
		if errors.Is(err, interfaces.ErrDuplicate) {
			return utils.NewConflictError("another default payment method was set concurrently")
		}
		return storeFailure("payment method", "promote payment method", err)
	})
	if err != nil {
		return nil, err
	}

	return method, nil
}

func (s *paymentMethodService) DeleteMethod(ctx context.Context, userID, methodID primitive.ObjectID) error {
	return s.lock(ctx, userID, func() error {
		if _, err := s.methodRepo.GetActive(ctx, methodID, userID); err != nil {
			return storeFailure("payment method", "get payment method", err)
		}

		count, err := s.methodRepo.CountActive(ctx, userID)
		if err != nil {
			return storeFailure("payment method", "count payment methods", err)
		}
		if count <= 1 {
			return utils.NewConstraintError("cannot delete the only payment method")
		}

		// Deactivate first: promoting while the old default is still set
		// would trip the one-default index.
		removed, err := s.methodRepo.Deactivate(ctx, methodID, userID)
		if err != nil {
			return storeFailure("payment method", "delete payment method", err)
		}

		if removed.IsDefault() {
			promoted, err := s.methodRepo.PromoteNewest(ctx, userID)
			if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
				return storeFailure("payment method", "promote payment method", err)
			}
			if promoted != nil {
				s.logger.WithUserID(userID).WithField("payment_method_id", promoted.ID.Hex()).Info("Promoted payment method to default")
			}
		}

		s.logger.WithUserID(userID).WithField("payment_method_id", methodID.Hex()).Info("Payment method deleted")
		return nil
	})
}

func newPaymentMethod(userID primitive.ObjectID, request *validators.AddPaymentMethodRequest) *models.PaymentMethod {
	method := &models.PaymentMethod{
		UserID:   userID,
		Type:     request.Type,
		State:    models.PaymentMethodStateActive,
		Nickname: strings.TrimSpace(request.Nickname),
	}

	switch request.Type {
	case models.PaymentMethodCreditCard, models.PaymentMethodDebitCard:
		method.Card = &models.CardDetails{
			Last4:       utils.MaskCardNumber(request.CardNumber),
			HolderName:  strings.TrimSpace(request.HolderName),
			ExpiryMonth: request.ExpiryMonth,
			ExpiryYear:  request.ExpiryYear,
		}
	case models.PaymentMethodPayPal:
		method.PayPalEmail = strings.ToLower(strings.TrimSpace(request.PayPalEmail))
	case models.PaymentMethodUPI:
		method.UPIID = strings.TrimSpace(request.UPIID)
	case models.PaymentMethodGreenWallet:
		method.Balance = utils.GreenWalletStartingBalance
	case models.PaymentMethodEcoCredits:
		method.Credits = utils.EcoCreditsStartingBalance
	}

	return method
}
