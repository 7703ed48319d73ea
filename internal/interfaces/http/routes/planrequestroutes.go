package routes

import (
	"github.com/gin-gonic/gin"

	"bandwave/internal/interfaces/http/handlers"
	"bandwave/internal/interfaces/http/middleware"
)

// PlanRequestRouteConfig holds dependencies for plan request routes.
type PlanRequestRouteConfig struct {
	PlanRequestHandler *handlers.PlanRequestHandler
}

// SetupPlanRequestRoutes configures plan-change request workflow routes.
func SetupPlanRequestRoutes(engine *gin.Engine, cfg *PlanRequestRouteConfig) {
	requests := engine.Group("/plan-requests")
	requests.Use(middleware.ActorFromHeaders())
	{
		requests.POST("", cfg.PlanRequestHandler.Submit)
		requests.POST("/:id/cancel", cfg.PlanRequestHandler.Cancel)

		// Admin review queue and decisions
		requestsAdmin := requests.Group("")
		requestsAdmin.Use(middleware.RequireAdmin())
		{
			requestsAdmin.GET("/queue", cfg.PlanRequestHandler.Queue)
			requestsAdmin.POST("/:id/approve", cfg.PlanRequestHandler.Approve)
			requestsAdmin.POST("/:id/reject", cfg.PlanRequestHandler.Reject)
		}
	}

	customers := engine.Group("/customers")
	customers.Use(middleware.ActorFromHeaders())
	{
		customers.GET("/:customer_id/plan-requests", cfg.PlanRequestHandler.ListByCustomer)
	}
}
