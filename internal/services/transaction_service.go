package services

import (
	"context"
	"errors"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"
	"greenride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

type TransactionService interface {
	GetTransactionHistory(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.TransactionWithMethod, *utils.PaginationMeta, error)
	GetGreenStats(ctx context.Context, userID primitive.ObjectID) (*models.GreenStats, error)
}

type transactionService struct {
	txnRepo      interfaces.TransactionRepository
	settingsRepo interfaces.SettingsRepository
	logger       *logger.Logger
	now          func() time.Time
}

func NewTransactionService(txnRepo interfaces.TransactionRepository, settingsRepo interfaces.SettingsRepository, logger *logger.Logger) TransactionService {
	return &transactionService{
		txnRepo:      txnRepo,
		settingsRepo: settingsRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *transactionService) GetTransactionHistory(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.TransactionWithMethod, *utils.PaginationMeta, error) {
	if params == nil {
		params = utils.NewPaginationParams(1, utils.TransactionHistoryLimit)
	}

	var (
		txns  []*models.TransactionWithMethod
		total int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txns, err = s.txnRepo.ListForUser(gctx, userID, params.GetSkip(), params.GetLimit())
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.txnRepo.CountForUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, storeFailure("transaction", "get transaction history", err)
	}

	return txns, utils.CreatePaginationMeta(params, total), nil
}

// GetGreenStats reads only. A user without stored settings is measured
// against the default goals.
func (s *transactionService) GetGreenStats(ctx context.Context, userID primitive.ObjectID) (*models.GreenStats, error) {
	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		monthly, allTime *models.GreenPeriodStats
		goals            = models.DefaultGreenGoals()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		monthly, err = s.txnRepo.Totals(gctx, userID, monthStart)
		return err
	})
	g.Go(func() error {
		var err error
		allTime, err = s.txnRepo.Totals(gctx, userID, time.Time{})
		return err
	})
	g.Go(func() error {
		settings, err := s.settingsRepo.Get(gctx, userID)
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		goals = settings.GreenGoals
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, storeFailure("green stats", "get green stats", err)
	}

	return &models.GreenStats{
		Monthly: *monthly,
		AllTime: *allTime,
		Goals:   goals,
		Progress: models.GreenProgress{
			CO2Progress:    utils.PercentOf(monthly.CO2SavedKg, goals.MonthlyCO2Target),
			RidesProgress:  utils.PercentOf(float64(monthly.RidesCompleted), float64(goals.MonthlyRidesTarget)),
			PointsProgress: utils.PercentOf(float64(monthly.GreenPointsEarned), float64(goals.GreenPointsTarget)),
		},
	}, nil
}
