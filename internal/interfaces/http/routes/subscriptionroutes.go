package routes

import (
	"github.com/gin-gonic/gin"

	"bandwave/internal/interfaces/http/handlers"
	"bandwave/internal/interfaces/http/middleware"
)

// SubscriptionRouteConfig holds dependencies for subscription routes.
type SubscriptionRouteConfig struct {
	SubscriptionHandler *handlers.SubscriptionHandler
	UsageHandler        *handlers.UsageHandler
}

// SetupSubscriptionRoutes configures subscription lifecycle routes.
func SetupSubscriptionRoutes(engine *gin.Engine, cfg *SubscriptionRouteConfig) {
	subscriptions := engine.Group("/subscriptions")
	subscriptions.Use(middleware.ActorFromHeaders())
	{
		subscriptions.POST("", cfg.SubscriptionHandler.Create)
		subscriptions.GET("/:id", cfg.SubscriptionHandler.Get)
		subscriptions.POST("/:id/activate", cfg.SubscriptionHandler.Activate)
		subscriptions.POST("/:id/upgrade", cfg.SubscriptionHandler.Upgrade)
		subscriptions.POST("/:id/downgrade", cfg.SubscriptionHandler.Downgrade)
		subscriptions.POST("/:id/cancel", cfg.SubscriptionHandler.Cancel)
		subscriptions.POST("/:id/renew", cfg.SubscriptionHandler.Renew)

		subscriptions.POST("/:id/usage", cfg.UsageHandler.Record)
		subscriptions.GET("/:id/usage", cfg.UsageHandler.Summary)

		// Admin-only operations
		subscriptionsAdmin := subscriptions.Group("")
		subscriptionsAdmin.Use(middleware.RequireAdmin())
		{
			subscriptionsAdmin.POST("/:id/suspend", cfg.SubscriptionHandler.Suspend)
			subscriptionsAdmin.POST("/:id/resume", cfg.SubscriptionHandler.Resume)
			subscriptionsAdmin.GET("/:id/reconciliation", cfg.SubscriptionHandler.Reconcile)
		}
	}

	customers := engine.Group("/customers")
	customers.Use(middleware.ActorFromHeaders())
	{
		customers.GET("/:customer_id/subscription", cfg.SubscriptionHandler.GetCurrent)
	}
}
