package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	subusecases "bandwave/internal/application/subscription/usecases"
	"bandwave/internal/interfaces/http/middleware"
	"bandwave/internal/shared/logger"
	"bandwave/internal/shared/utils"
)

// SubscriptionHandler exposes the subscription lifecycle operations.
type SubscriptionHandler struct {
	createUC    *subusecases.CreateSubscriptionUseCase
	activateUC  *subusecases.ActivateSubscriptionUseCase
	upgradeUC   *subusecases.UpgradePlanUseCase
	downgradeUC *subusecases.DowngradePlanUseCase
	cancelUC    *subusecases.CancelSubscriptionUseCase
	suspendUC   *subusecases.SuspendSubscriptionUseCase
	resumeUC    *subusecases.ResumeSubscriptionUseCase
	renewUC     *subusecases.RenewSubscriptionUseCase
	getUC       *subusecases.GetSubscriptionUseCase
	reconcileUC *subusecases.ReconcileSubscriptionUseCase
	logger      logger.Interface
}

func NewSubscriptionHandler(
	createUC *subusecases.CreateSubscriptionUseCase,
	activateUC *subusecases.ActivateSubscriptionUseCase,
	upgradeUC *subusecases.UpgradePlanUseCase,
	downgradeUC *subusecases.DowngradePlanUseCase,
	cancelUC *subusecases.CancelSubscriptionUseCase,
	suspendUC *subusecases.SuspendSubscriptionUseCase,
	resumeUC *subusecases.ResumeSubscriptionUseCase,
	renewUC *subusecases.RenewSubscriptionUseCase,
	getUC *subusecases.GetSubscriptionUseCase,
	reconcileUC *subusecases.ReconcileSubscriptionUseCase,
	logger logger.Interface,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		createUC:    createUC,
		activateUC:  activateUC,
		upgradeUC:   upgradeUC,
		downgradeUC: downgradeUC,
		cancelUC:    cancelUC,
		suspendUC:   suspendUC,
		resumeUC:    resumeUC,
		renewUC:     renewUC,
		getUC:       getUC,
		reconcileUC: reconcileUC,
		logger:      logger,
	}
}

type createSubscriptionRequest struct {
	CustomerID   uint       `json:"customer_id" binding:"required"`
	PlanID       uint       `json:"plan_id" binding:"required"`
	BillingCycle string     `json:"billing_cycle" binding:"required"`
	DiscountCode string     `json:"discount_code"`
	StartDate    *time.Time `json:"start_date"`
}

// Create handles POST /subscriptions.
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req createSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.createUC.Execute(c.Request.Context(), subusecases.CreateSubscriptionCommand{
		Actor:        middleware.GetActor(c),
		CustomerID:   req.CustomerID,
		PlanID:       req.PlanID,
		BillingCycle: req.BillingCycle,
		DiscountCode: req.DiscountCode,
		StartDate:    req.StartDate,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto, "Subscription created successfully")
}

type paymentRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Method         string          `json:"method" binding:"required"`
	TransactionRef string          `json:"transaction_ref" binding:"required"`
	PaidAt         *time.Time      `json:"paid_at"`
}

func (r *paymentRequest) paidAt() time.Time {
	if r.PaidAt != nil {
		return *r.PaidAt
	}
	return time.Now().UTC()
}

// Activate handles POST /subscriptions/:id/activate.
func (h *SubscriptionHandler) Activate(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.activateUC.Execute(c.Request.Context(), subusecases.ActivateSubscriptionCommand{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
		Amount:         req.Amount,
		Method:         req.Method,
		TransactionRef: req.TransactionRef,
		PaidAt:         req.paidAt(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription activated", dto)
}

type upgradePlanRequest struct {
	NewPlanID    uint   `json:"new_plan_id" binding:"required"`
	DiscountCode string `json:"discount_code"`
}

// Upgrade handles POST /subscriptions/:id/upgrade.
func (h *SubscriptionHandler) Upgrade(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req upgradePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.upgradeUC.Execute(c.Request.Context(), subusecases.UpgradePlanCommand{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
		NewPlanID:      req.NewPlanID,
		DiscountCode:   req.DiscountCode,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan upgraded", dto)
}

type downgradePlanRequest struct {
	NewPlanID     uint       `json:"new_plan_id" binding:"required"`
	DiscountCode  string     `json:"discount_code"`
	EffectiveDate *time.Time `json:"effective_date"`
}

// Downgrade handles POST /subscriptions/:id/downgrade. A future effective
// date schedules the change instead of applying it immediately.
func (h *SubscriptionHandler) Downgrade(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req downgradePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.downgradeUC.Execute(c.Request.Context(), subusecases.DowngradePlanCommand{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
		NewPlanID:      req.NewPlanID,
		DiscountCode:   req.DiscountCode,
		EffectiveDate:  req.EffectiveDate,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Plan downgraded", dto)
}

type cancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Cancel handles POST /subscriptions/:id/cancel.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req cancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.cancelUC.Execute(c.Request.Context(), subusecases.CancelSubscriptionCommand{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
		Reason:         req.Reason,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription cancelled", dto)
}

type suspendSubscriptionRequest struct {
	Reason string `json:"reason"`
}

// Suspend handles POST /subscriptions/:id/suspend (admin only).
func (h *SubscriptionHandler) Suspend(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req suspendSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.suspendUC.Execute(c.Request.Context(), subusecases.SuspendSubscriptionCommand{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
		Reason:         req.Reason,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription suspended", dto)
}

// Resume handles POST /subscriptions/:id/resume (admin only).
func (h *SubscriptionHandler) Resume(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.resumeUC.Execute(c.Request.Context(), subusecases.ResumeSubscriptionCommand{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription resumed", dto)
}

// Renew handles POST /subscriptions/:id/renew.
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.renewUC.Execute(c.Request.Context(), subusecases.RenewSubscriptionCommand{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
		Amount:         req.Amount,
		Method:         req.Method,
		TransactionRef: req.TransactionRef,
		PaidAt:         req.paidAt(),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription renewed", dto)
}

// Get handles GET /subscriptions/:id. The detail query flag includes the
// history timeline and payment records.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.getUC.Execute(c.Request.Context(), subusecases.GetSubscriptionQuery{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
		IncludeDetail:  c.Query("detail") == "true",
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto)
}

// GetCurrent handles GET /customers/:customer_id/subscription.
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	customerID, err := utils.ParseUintParam(c, "customer_id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.getUC.ExecuteCurrent(c.Request.Context(), subusecases.GetCurrentSubscriptionQuery{
		Actor:      middleware.GetActor(c),
		CustomerID: customerID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto)
}

// Reconcile handles GET /subscriptions/:id/reconciliation (admin only). It
// replays the history timeline against recorded payments and reports drift.
func (h *SubscriptionHandler) Reconcile(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.reconcileUC.Execute(c.Request.Context(), subusecases.ReconcileSubscriptionQuery{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto)
}
