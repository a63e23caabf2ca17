package routes

import (
	"greenride/internal/handlers"
	"greenride/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPaymentRoutes sets up payment method, payment and ledger routes
func SetupPaymentRoutes(r *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, validator middleware.TokenValidator) {
	payments := r.Group("/payments")
	payments.Use(middleware.AuthRequired(validator))
	{
		// Payment methods
		payments.POST("/methods", paymentHandler.AddPaymentMethod)
		payments.GET("/methods", paymentHandler.ListPaymentMethods)
		payments.PUT("/methods/:id/default", paymentHandler.SetDefaultPaymentMethod)
		payments.DELETE("/methods/:id", paymentHandler.DeletePaymentMethod)

		payments.POST("/process", paymentHandler.ProcessPayment)
		payments.POST("/eco-bonus", paymentHandler.AwardEcoBonus)
		payments.GET("/transactions", paymentHandler.GetTransactionHistory)
	}
}
