package routes

import (
	"context"
	"net/http"
	"time"

	"greenride/internal/handlers"
	"greenride/internal/middleware"
	"greenride/internal/utils"
	"greenride/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Ride     *handlers.RideHandler
	Payment  *handlers.PaymentHandler
	Settings *handlers.SettingsHandler
	Safety   *handlers.SafetyHandler
	Socket   *websocket.Handler
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Version       string
	WebSocketPath string
	Validator     middleware.TokenValidator
	Health        map[string]HealthChecker
}

// Setup registers every route on the engine.
func Setup(router *gin.Engine, h Handlers, config RouterConfig) {
	router.GET("/health", healthHandler(config))

	if h.Socket != nil {
		path := config.WebSocketPath
		if path == "" {
			path = "/ws"
		}
		router.GET(path, middleware.AuthRequired(config.Validator), h.Socket.HandleWebSocket)
	}

	v1 := router.Group("/api/v1")
	{
		SetupAuthRoutes(v1, h.Auth, config.Validator)
		SetupRideRoutes(v1, h.Ride, config.Validator)
		SetupPaymentRoutes(v1, h.Payment, config.Validator)
		SetupSettingsRoutes(v1, h.Settings, config.Validator)
		SetupSafetyRoutes(v1, h.Safety, config.Validator)
	}

	router.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, string(utils.KindNotFound), "Route not found")
	})
}

func healthHandler(config RouterConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(config.Health))
		for name, checker := range config.Health {
			if err := checker.Ping(ctx); err != nil {
				checks[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		state := "healthy"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"version": config.Version,
			"checks":  checks,
		})
	}
}
