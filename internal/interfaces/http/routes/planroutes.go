package routes

import (
	"github.com/gin-gonic/gin"

	"bandwave/internal/interfaces/http/handlers"
	"bandwave/internal/interfaces/http/middleware"
)

// PlanRouteConfig holds dependencies for plan routes.
type PlanRouteConfig struct {
	PlanHandler *handlers.PlanHandler
}

// SetupPlanRoutes configures plan catalog routes.
func SetupPlanRoutes(engine *gin.Engine, cfg *PlanRouteConfig) {
	plans := engine.Group("/plans")
	{
		// Public catalog
		plans.GET("", cfg.PlanHandler.ListPlans)
		plans.GET("/:id", cfg.PlanHandler.GetPlan)

		// Admin-only write operations
		plansAdmin := plans.Group("")
		plansAdmin.Use(middleware.ActorFromHeaders())
		plansAdmin.Use(middleware.RequireAdmin())
		{
			plansAdmin.POST("", cfg.PlanHandler.CreatePlan)
		}
	}
}
