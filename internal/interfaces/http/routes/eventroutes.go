package routes

import (
	"github.com/gin-gonic/gin"

	"bandwave/internal/interfaces/http/handlers"
	"bandwave/internal/interfaces/http/middleware"
)

// EventRouteConfig holds dependencies for event stream routes.
type EventRouteConfig struct {
	EventStreamHandler *handlers.EventStreamHandler
}

// SetupEventRoutes configures the SSE fan-out routes.
func SetupEventRoutes(engine *gin.Engine, cfg *EventRouteConfig) {
	eventGroup := engine.Group("/events")
	eventGroup.Use(middleware.ActorFromHeaders())
	{
		eventGroup.GET("/stream", cfg.EventStreamHandler.Stream)
		eventGroup.GET("/health", cfg.EventStreamHandler.Health)
	}
}
