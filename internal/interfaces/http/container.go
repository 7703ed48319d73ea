package http

import (
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	payusecases "bandwave/internal/application/payment/usecases"
	planusecases "bandwave/internal/application/plan/usecases"
	requsecases "bandwave/internal/application/planrequest/usecases"
	subusecases "bandwave/internal/application/subscription/usecases"
	usageusecases "bandwave/internal/application/usage/usecases"
	"bandwave/internal/domain/plan"
	"bandwave/internal/domain/planrequest"
	"bandwave/internal/domain/shared/events"
	"bandwave/internal/domain/subscription"
	"bandwave/internal/domain/usage"
	"bandwave/internal/infrastructure/config"
	"bandwave/internal/infrastructure/pubsub"
	"bandwave/internal/infrastructure/repository"
	"bandwave/internal/interfaces/http/handlers"
	"bandwave/internal/shared/logger"
)

// Container wires repositories, use cases, and handlers. One instance backs
// both the HTTP server and the scheduler jobs.
type Container struct {
	// Event fan-out
	Hub       *pubsub.Hub
	Relay     *pubsub.RedisRelay
	Publisher events.Publisher

	// Repositories
	PlanRepo         plan.Repository
	SubscriptionRepo subscription.Repository
	RequestRepo      planrequest.Repository
	UsageRepo        usage.Repository

	// Batch jobs for the scheduler
	ApplyScheduledChangesUC *subusecases.ApplyScheduledChangesUseCase
	ExpireSubscriptionsUC   *subusecases.ExpireSubscriptionsUseCase

	// Handlers
	PlanHandler         *handlers.PlanHandler
	SubscriptionHandler *handlers.SubscriptionHandler
	PlanRequestHandler  *handlers.PlanRequestHandler
	UsageHandler        *handlers.UsageHandler
	PaymentHandler      *handlers.PaymentHandler
	EventStreamHandler  *handlers.EventStreamHandler
}

// NewContainer builds the full dependency graph. A nil Redis client keeps
// event fan-out in-process only.
func NewContainer(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	log logger.Interface,
) *Container {
	hub := pubsub.NewHub(log.Named("pubsub"))

	var publisher events.Publisher = hub
	var relay *pubsub.RedisRelay
	if redisClient != nil {
		relay = pubsub.NewRedisRelay(redisClient, hub, log.Named("relay"))
		publisher = relay
	}

	planRepo := repository.NewPlanRepository(db, log.Named("plan-repo"))
	subscriptionRepo := repository.NewSubscriptionRepository(db, log.Named("subscription-repo"))
	requestRepo := repository.NewPlanRequestRepository(db, log.Named("request-repo"))
	usageRepo := repository.NewUsagePeriodRepository(db, log.Named("usage-repo"))

	taxRate := decimal.NewFromFloat(cfg.Billing.TaxRatePercent)
	refundPolicy := subusecases.RefundPolicy{
		WindowDays:      cfg.Billing.RefundWindowDay,
		UsageCapPercent: cfg.Billing.RefundUsageCap,
	}

	createSubUC := subusecases.NewCreateSubscriptionUseCase(subscriptionRepo, planRepo, publisher, taxRate, log)
	activateSubUC := subusecases.NewActivateSubscriptionUseCase(subscriptionRepo, publisher, log)
	upgradeUC := subusecases.NewUpgradePlanUseCase(subscriptionRepo, planRepo, publisher, taxRate, log)
	downgradeUC := subusecases.NewDowngradePlanUseCase(subscriptionRepo, planRepo, publisher, taxRate, log)
	cancelSubUC := subusecases.NewCancelSubscriptionUseCase(subscriptionRepo, planRepo, usageRepo, publisher, refundPolicy, log)
	suspendUC := subusecases.NewSuspendSubscriptionUseCase(subscriptionRepo, publisher, log)
	resumeUC := subusecases.NewResumeSubscriptionUseCase(subscriptionRepo, publisher, log)
	renewUC := subusecases.NewRenewSubscriptionUseCase(subscriptionRepo, publisher, log)
	getSubUC := subusecases.NewGetSubscriptionUseCase(subscriptionRepo)
	reconcileUC := subusecases.NewReconcileSubscriptionUseCase(subscriptionRepo)

	applyScheduledUC := subusecases.NewApplyScheduledChangesUseCase(subscriptionRepo, planRepo, publisher, taxRate, 0, log)
	expireSubsUC := subusecases.NewExpireSubscriptionsUseCase(subscriptionRepo, publisher, 0, log)

	submitReqUC := requsecases.NewSubmitRequestUseCase(requestRepo, subscriptionRepo, planRepo, publisher, taxRate, log)
	approveReqUC := requsecases.NewApproveRequestUseCase(requestRepo, subscriptionRepo, planRepo, usageRepo, publisher, taxRate, refundPolicy, log)
	rejectReqUC := requsecases.NewRejectRequestUseCase(requestRepo, publisher, log)
	cancelReqUC := requsecases.NewCancelRequestUseCase(requestRepo, publisher, log)
	listReqUC := requsecases.NewListRequestsUseCase(requestRepo)

	recordUsageUC := usageusecases.NewRecordUsageUseCase(usageRepo, subscriptionRepo, planRepo, publisher, cfg.Usage.AlertThresholds, log)
	usageSummaryUC := usageusecases.NewGetUsageSummaryUseCase(usageRepo, subscriptionRepo, planRepo)

	createPlanUC := planusecases.NewCreatePlanUseCase(planRepo, log)
	listPlansUC := planusecases.NewListPlansUseCase(planRepo)

	paymentConfirmedUC := payusecases.NewOnPaymentConfirmedUseCase(subscriptionRepo, planRepo, publisher, taxRate, log)

	return &Container{
		Hub:       hub,
		Relay:     relay,
		Publisher: publisher,

		PlanRepo:         planRepo,
		SubscriptionRepo: subscriptionRepo,
		RequestRepo:      requestRepo,
		UsageRepo:        usageRepo,

		ApplyScheduledChangesUC: applyScheduledUC,
		ExpireSubscriptionsUC:   expireSubsUC,

		PlanHandler: handlers.NewPlanHandler(createPlanUC, listPlansUC, log.Named("plan-handler")),
		SubscriptionHandler: handlers.NewSubscriptionHandler(
			createSubUC, activateSubUC, upgradeUC, downgradeUC, cancelSubUC,
			suspendUC, resumeUC, renewUC, getSubUC, reconcileUC,
			log.Named("subscription-handler"),
		),
		PlanRequestHandler: handlers.NewPlanRequestHandler(
			submitReqUC, approveReqUC, rejectReqUC, cancelReqUC, listReqUC,
			log.Named("request-handler"),
		),
		UsageHandler:       handlers.NewUsageHandler(recordUsageUC, usageSummaryUC, log.Named("usage-handler")),
		PaymentHandler:     handlers.NewPaymentHandler(paymentConfirmedUC, log.Named("payment-handler")),
		EventStreamHandler: handlers.NewEventStreamHandler(hub, log.Named("event-handler")),
	}
}
