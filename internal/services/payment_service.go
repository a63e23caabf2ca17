package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"
	"greenride/internal/validators"
	"greenride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentService settles money for rides. Payments are simulated and always
// succeed once the internal balance checks pass.
type PaymentService interface {
	ProcessRidePayment(ctx context.Context, userID primitive.ObjectID, request *validators.ProcessPaymentRequest) (*PaymentReceipt, error)
	// AwardEcoBonus grants a bonus at most once per user and ride.
	AwardEcoBonus(ctx context.Context, userID primitive.ObjectID, request *validators.EcoBonusRequest) (*EcoBonusResult, error)
}

type PaymentConfig struct {
	Currency          string
	DefaultDistanceKm float64
	LockTTL           time.Duration
}

type PaymentReceipt struct {
	Transaction   *models.Transaction   `json:"transaction"`
	PaymentMethod *models.PaymentMethod `json:"payment_method"`
}

type EcoBonusResult struct {
	Transaction   *models.Transaction `json:"transaction"`
	NewEcoCredits int                 `json:"new_eco_credits"`
}

type paymentService struct {
	rideRepo   interfaces.RideRepository
	methodRepo interfaces.PaymentMethodRepository
	txnRepo    interfaces.TransactionRepository
	locker     Locker
	events     EventPublisher
	config     PaymentConfig
	logger     *logger.Logger

	now              func() time.Time
	newTransactionID func(time.Time) string
}

func NewPaymentService(
	rideRepo interfaces.RideRepository,
	methodRepo interfaces.PaymentMethodRepository,
	txnRepo interfaces.TransactionRepository,
	locker Locker,
	events EventPublisher,
	config PaymentConfig,
	logger *logger.Logger,
) PaymentService {
	if config.Currency == "" {
		config.Currency = utils.DefaultCurrency
	}
	if config.DefaultDistanceKm <= 0 {
		config.DefaultDistanceKm = utils.DefaultRideDistanceKm
	}
	if config.LockTTL <= 0 {
		config.LockTTL = utils.PaymentMethodLockTTL
	}
	return &paymentService{
		rideRepo:         rideRepo,
		methodRepo:       methodRepo,
		txnRepo:          txnRepo,
		locker:           locker,
		events:           events,
		config:           config,
		logger:           logger,
		now:              time.Now,
		newTransactionID: utils.GenerateTransactionID,
	}
}

func (s *paymentService) ProcessRidePayment(ctx context.Context, userID primitive.ObjectID, request *validators.ProcessPaymentRequest) (*PaymentReceipt, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}
	rideID, err := parseObjectID("ride_id", request.RideID)
	if err != nil {
		return nil, err
	}
	methodID, err := parseObjectID("payment_method_id", request.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, storeFailure("ride", "get ride", err)
	}
	if !ride.IsParticipant(userID) {
		return nil, utils.NewForbiddenError("you are not part of this ride")
	}

	method, err := s.methodRepo.GetActive(ctx, methodID, userID)
	if err != nil {
		return nil, storeFailure("payment method", "get payment method", err)
	}

	distance := s.config.DefaultDistanceKm
	if ride.DistanceKm != nil && *ride.DistanceKm > 0 {
		distance = *ride.DistanceKm
	}
	co2 := utils.CarbonOffsetKg(distance)
	points := utils.GreenPoints(co2)
	amount := request.Amount

	// Debit before recording so a short balance never leaves a completed
	// transaction behind. compensate undoes the debit if recording fails.
	compensate := func() {}
	switch method.Type {
	case models.PaymentMethodGreenWallet:
		delta := utils.WalletBalanceDelta(amount, points)
		methodID := method.ID
		method, err = s.methodRepo.DebitBalance(ctx, methodID, amount, delta)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, s.debitMiss(ctx, methodID, userID, "insufficient Green Wallet balance")
		}
		if err != nil {
			return nil, storeFailure("payment method", "debit wallet", err)
		}
		compensate = func() {
			if err := s.methodRepo.AdjustBalance(ctx, method.ID, -delta); err != nil {
				s.logger.WithError(err).WithField("payment_method_id", method.ID.Hex()).Error("Failed to refund wallet debit")
			}
		}
	case models.PaymentMethodEcoCredits:
		needed := utils.EcoCreditsNeeded(amount)
		delta := points - needed
		methodID := method.ID
		method, err = s.methodRepo.DebitCredits(ctx, methodID, needed, delta)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, s.debitMiss(ctx, methodID, userID, "insufficient eco credits")
		}
		if err != nil {
			return nil, storeFailure("payment method", "debit eco credits", err)
		}
		compensate = func() {
			if _, err := s.methodRepo.AdjustCredits(ctx, method.ID, -delta); err != nil {
				s.logger.WithError(err).WithField("payment_method_id", method.ID.Hex()).Error("Failed to refund eco credit debit")
			}
		}
	}

	txn := &models.Transaction{
		UserID:            userID,
		RideID:            &rideID,
		PaymentMethodID:   method.ID,
		Type:              models.TransactionTypeRidePayment,
		Status:            models.TransactionStatusCompleted,
		Amount:            utils.RoundCurrency(amount),
		Currency:          s.config.Currency,
		GreenPointsEarned: points,
		CarbonOffsetKg:    co2,
		DistanceKm:        distance,
		Description:       fmt.Sprintf("Payment for ride from %s to %s", ride.Origin, ride.Destination),
	}
	if err := s.record(ctx, txn); err != nil {
		compensate()
		return nil, err
	}

	s.logger.WithUserID(userID).LogPaymentEvent(txn.TransactionID, utils.EventPaymentProcessed, txn.Amount, txn.Currency)
	s.publish(ctx, utils.EventPaymentProcessed, userID, txn)

	return &PaymentReceipt{Transaction: txn, PaymentMethod: method}, nil
}

// debitMiss classifies a conditional debit that matched nothing: the method
// was deactivated in the meantime, or the balance is short.
func (s *paymentService) debitMiss(ctx context.Context, methodID, userID primitive.ObjectID, shortMessage string) error {
	_, err := s.methodRepo.GetActive(ctx, methodID, userID)
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return utils.NewNotFoundError("payment method")
	case err != nil:
		return storeFailure("payment method", "get payment method", err)
	}
	return utils.NewInsufficientFundsError(shortMessage)
}

func (s *paymentService) AwardEcoBonus(ctx context.Context, userID primitive.ObjectID, request *validators.EcoBonusRequest) (*EcoBonusResult, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}
	rideID, err := parseObjectID("ride_id", request.RideID)
	if err != nil {
		return nil, err
	}

	bonusKey := userID.Hex() + ":" + rideID.Hex()
	points := utils.GreenPoints(request.CO2SavedKg)
	var result *EcoBonusResult

	// Held for the whole award: it may create the user's first method,
	// which must become the default.
	err = withLock(ctx, s.locker, utils.CachePaymentMethodPrefix+userID.Hex(), s.config.LockTTL, func() error {
		if _, err := s.txnRepo.GetByBonusKey(ctx, bonusKey); err == nil {
			return utils.NewConflictError("eco bonus already awarded for this ride")
		} else if !errors.Is(err, interfaces.ErrNotFound) {
			return storeFailure("transaction", "check eco bonus", err)
		}

		method, err := s.ensureEcoCredits(ctx, userID)
		if err != nil {
			return err
		}

		method, err = s.methodRepo.AdjustCredits(ctx, method.ID, points)
		if err != nil {
			return storeFailure("payment method", "credit eco credits", err)
		}

		txn := &models.Transaction{
			UserID:            userID,
			RideID:            &rideID,
			PaymentMethodID:   method.ID,
			Type:              models.TransactionTypeEcoBonus,
			Status:            models.TransactionStatusCompleted,
			Amount:            utils.RoundCurrency(request.BonusAmount),
			Currency:          s.config.Currency,
			GreenPointsEarned: points,
			CarbonOffsetKg:    request.CO2SavedKg,
			BonusKey:          bonusKey,
			Description:       fmt.Sprintf("Eco bonus for sustainable ride - %.2fkg CO2 saved", request.CO2SavedKg),
		}
		if err := s.record(ctx, txn); err != nil {
			if _, cerr := s.methodRepo.AdjustCredits(ctx, method.ID, -points); cerr != nil {
				s.logger.WithError(cerr).WithField("payment_method_id", method.ID.Hex()).Error("Failed to revert eco bonus credits")
			}
			return err
		}

		result = &EcoBonusResult{Transaction: txn, NewEcoCredits: method.Credits}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithUserID(userID).LogPaymentEvent(result.Transaction.TransactionID, utils.EventEcoBonusAwarded, result.Transaction.Amount, result.Transaction.Currency)
	s.publish(ctx, utils.EventEcoBonusAwarded, userID, result)
	return result, nil
}

// ensureEcoCredits returns the user's eco credits method, creating an empty
// one on first use. Callers hold the user's payment method lock.
func (s *paymentService) ensureEcoCredits(ctx context.Context, userID primitive.ObjectID) (*models.PaymentMethod, error) {
	method, created, err := s.methodRepo.EnsureEcoCredits(ctx, userID)
	if err != nil {
		return nil, storeFailure("payment method", "ensure eco credits", err)
	}
	if !created {
		return method, nil
	}

	count, err := s.methodRepo.CountActive(ctx, userID)
	if err != nil {
		return nil, storeFailure("payment method", "count payment methods", err)
	}
	if count == 1 {
		promoted, err := s.methodRepo.Promote(ctx, method.ID, userID)
		if err != nil && !errors.Is(err, interfaces.ErrDuplicate) {
			return nil, storeFailure("payment method", "promote payment method", err)
		}
		if promoted != nil {
			method = promoted
		}
	}
	return method, nil
}

// record inserts txn under a fresh transaction id, regenerating the id on a
// collision. A bonus key collision is final.
func (s *paymentService) record(ctx context.Context, txn *models.Transaction) error {
	for attempt := 0; attempt < utils.TransactionIDMaxAttempts; attempt++ {
		txn.CreatedAt = s.now()
		txn.TransactionID = s.newTransactionID(txn.CreatedAt)

		err := s.txnRepo.Create(ctx, txn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, interfaces.ErrDuplicate) {
			return storeFailure("transaction", "record transaction", err)
		}

		if txn.BonusKey != "" {
			if _, lookupErr := s.txnRepo.GetByBonusKey(ctx, txn.BonusKey); lookupErr == nil {
				return utils.NewConflictError("eco bonus already awarded for this ride")
			}
		}
		s.logger.WithField("transaction_id", txn.TransactionID).Warn("Transaction id collision, regenerating")
	}

	return utils.NewConflictError("could not allocate a unique transaction id")
}

func (s *paymentService) publish(ctx context.Context, event string, userID primitive.ObjectID, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, event, []primitive.ObjectID{userID}, data); err != nil {
		s.logger.WithError(err).WithField("event", event).Warn("Failed to publish payment event")
	}
}
