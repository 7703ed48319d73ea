package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bandwave/internal/infrastructure/config"
	"bandwave/internal/interfaces/http/middleware"
	"bandwave/internal/interfaces/http/routes"
	"bandwave/internal/shared/logger"
)

// NewRouter assembles the gin engine with global middleware and all route
// groups.
func NewRouter(cfg *config.Config, container *Container, log logger.Interface) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log.Named("http")))
	engine.Use(middleware.CORS([]string{"*"}))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.SetupPlanRoutes(engine, &routes.PlanRouteConfig{
		PlanHandler: container.PlanHandler,
	})
	routes.SetupSubscriptionRoutes(engine, &routes.SubscriptionRouteConfig{
		SubscriptionHandler: container.SubscriptionHandler,
		UsageHandler:        container.UsageHandler,
	})
	routes.SetupPlanRequestRoutes(engine, &routes.PlanRequestRouteConfig{
		PlanRequestHandler: container.PlanRequestHandler,
	})
	routes.SetupPaymentRoutes(engine, &routes.PaymentRouteConfig{
		PaymentHandler: container.PaymentHandler,
	})
	routes.SetupEventRoutes(engine, &routes.EventRouteConfig{
		EventStreamHandler: container.EventStreamHandler,
	})

	return engine
}
