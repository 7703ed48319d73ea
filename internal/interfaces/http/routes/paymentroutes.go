package routes

import (
	"github.com/gin-gonic/gin"

	"bandwave/internal/interfaces/http/handlers"
	"bandwave/internal/interfaces/http/middleware"
)

// PaymentRouteConfig holds dependencies for payment routes.
type PaymentRouteConfig struct {
	PaymentHandler *handlers.PaymentHandler
}

// SetupPaymentRoutes configures payment gateway callback routes. The gateway
// calls with the system role.
func SetupPaymentRoutes(engine *gin.Engine, cfg *PaymentRouteConfig) {
	payments := engine.Group("/payments")
	payments.Use(middleware.ActorFromHeaders())
	{
		payments.POST("/confirmed", cfg.PaymentHandler.Confirmed)
	}
}
