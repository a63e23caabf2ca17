package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"greenride/internal/config"
	"greenride/internal/handlers"
	"greenride/internal/middleware"
	"greenride/internal/repositories/mongodb"
	"greenride/internal/services"
	"greenride/pkg/cache"
	"greenride/pkg/database"
	"greenride/pkg/logger"
	"greenride/pkg/websocket"
	"greenride/routes"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.WithError(err).Fatal("Server exited with error")
	}
	appLogger.Info("Server exited")
}

func run(ctx context.Context, cfg *config.Config, appLogger *logger.Logger) error {
	// New Relic first so the router can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled {
		app, err := newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			appLogger.WithError(err).Warn("Failed to initialize New Relic")
		} else {
			nrApp = app
			defer nrApp.Shutdown(5 * time.Second)
		}
	}

	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	defer mongoDB.Close()
	appLogger.WithField("database", cfg.Database.Database).Info("Connected to MongoDB")

	if cfg.Database.RunMigrations {
		if err := database.NewMigrator(mongoDB.Database, appLogger).Up(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	health := map[string]routes.HealthChecker{"mongodb": mongoDB}

	// Redis is optional: without it locks and the socket relay stay in
	// process, which is only correct for a single instance.
	var (
		locker    services.Locker
		broker    cache.Broker
		userCache mongodb.CacheService
	)
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisCache.Close()
		appLogger.WithField("addr", cfg.Redis.Addr()).Info("Connected to Redis")

		locker = cache.NewRedisLocker(redisCache, "greenride:lock:")
		broker = redisCache
		userCache = redisCache
		health["redis"] = redisCache
	} else {
		appLogger.Warn("Redis disabled, using in-process locks and relay")
		locker = cache.NewLocalLocker()
		broker = cache.NewLocalBroker()
	}

	// Repositories
	db := mongoDB.Database
	userRepo := mongodb.NewUserRepository(db, userCache)
	rideRepo := mongodb.NewRideRepository(db)
	completedRepo := mongodb.NewCompletedRideRepository(db)
	methodRepo := mongodb.NewPaymentMethodRepository(db)
	txnRepo := mongodb.NewTransactionRepository(db)
	safetyRepo := mongodb.NewSafetyRepository(db)
	settingsRepo := mongodb.NewSettingsRepository(db)

	hub := websocket.NewHub(broker, appLogger)

	// Services
	authService := services.NewAuthService(userRepo, services.AuthConfig{
		JWTSecret:  cfg.Security.JWTSecret,
		TokenTTL:   cfg.Security.JWTAccessTokenTTL,
		BcryptCost: cfg.Security.BcryptCost,
	}, appLogger)
	safetyService := services.NewSafetyService(safetyRepo, appLogger)
	settingsService := services.NewSettingsService(settingsRepo, appLogger)
	transactionService := services.NewTransactionService(txnRepo, settingsRepo, appLogger)
	rideService := services.NewRideService(rideRepo, completedRepo, hub, appLogger)
	settlementService := services.NewSettlementService(rideRepo, completedRepo, userRepo, safetyService, hub, locker,
		services.SettlementConfig{LockTTL: cfg.Settlement.CompletionLockTTL}, appLogger)
	methodService := services.NewPaymentMethodService(methodRepo, locker, cfg.Settlement.PaymentLockTTL, appLogger)
	paymentService := services.NewPaymentService(rideRepo, methodRepo, txnRepo, locker, hub, services.PaymentConfig{
		Currency:          cfg.App.Currency,
		DefaultDistanceKm: cfg.Settlement.DefaultDistanceKm,
		LockTTL:           cfg.Settlement.PaymentLockTTL,
	}, appLogger)

	// Router
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}

	router.Use(middleware.RecoveryMiddleware(appLogger))
	if nrApp != nil {
		router.Use(nrgin.Middleware(nrApp))
	}
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))
	router.Use(middleware.NewRateLimiter(cfg.Security.RateLimitPerMinute).Middleware())

	routes.Setup(router, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Ride:     handlers.NewRideHandler(rideService, settlementService, cfg.Settlement.ResumeAfter),
		Payment:  handlers.NewPaymentHandler(methodService, paymentService, transactionService, cfg.Settlement.HistoryLimit),
		Settings: handlers.NewSettingsHandler(settingsService, transactionService),
		Safety:   handlers.NewSafetyHandler(safetyService),
		Socket: websocket.NewHandler(ctx, hub, websocket.HandlerConfig{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
			Client: websocket.ClientConfig{
				WriteWait:      cfg.WebSocket.WriteTimeout,
				PongWait:       cfg.WebSocket.PongTimeout,
				PingPeriod:     cfg.WebSocket.PingInterval,
				MaxMessageSize: cfg.WebSocket.MaxMessageSize,
			},
		}),
	}, routes.RouterConfig{
		Version:       cfg.App.Version,
		WebSocketPath: cfg.WebSocket.Path,
		Validator:     authService,
		Health:        health,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		resumeCompletions(gctx, settlementService, cfg.Settlement, appLogger)
		return nil
	})

	g.Go(func() error {
		appLogger.Infof("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// resumeCompletions periodically finishes completions interrupted by a crash
// or a store outage.
func resumeCompletions(ctx context.Context, settlement services.SettlementService, cfg *config.SettlementConfig, log *logger.Logger) {
	if cfg.ResumeInterval <= 0 {
		return
	}
	ticker := time.NewTicker(cfg.ResumeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resumed, err := settlement.ResumePending(ctx, cfg.ResumeAfter)
			if err != nil {
				log.WithError(err).Warn("Resuming interrupted completions failed")
			}
			if resumed > 0 {
				log.WithField("count", resumed).Info("Resumed interrupted completions")
			}
		}
	}
}
