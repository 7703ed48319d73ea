package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	payusecases "bandwave/internal/application/payment/usecases"
	"bandwave/internal/shared/logger"
	"bandwave/internal/shared/utils"
)

// PaymentHandler receives confirmations from the external payment gateway.
type PaymentHandler struct {
	confirmedUC *payusecases.OnPaymentConfirmedUseCase
	logger      logger.Interface
}

func NewPaymentHandler(
	confirmedUC *payusecases.OnPaymentConfirmedUseCase,
	logger logger.Interface,
) *PaymentHandler {
	return &PaymentHandler{
		confirmedUC: confirmedUC,
		logger:      logger,
	}
}

type paymentConfirmedRequest struct {
	CustomerID     uint            `json:"customer_id" binding:"required"`
	PlanID         uint            `json:"plan_id"`
	BillingCycle   string          `json:"billing_cycle"`
	DiscountCode   string          `json:"discount_code"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Method         string          `json:"method" binding:"required"`
	TransactionRef string          `json:"transaction_ref" binding:"required"`
	PaidAt         *time.Time      `json:"paid_at"`
}

// Confirmed handles POST /payments/confirmed. Depending on the customer's
// current state the payment activates a pending subscription, renews an
// existing one, or creates and activates a new one.
func (h *PaymentHandler) Confirmed(c *gin.Context) {
	var req paymentConfirmedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	dto, err := h.confirmedUC.Execute(c.Request.Context(), payusecases.OnPaymentConfirmedCommand{
		CustomerID:     req.CustomerID,
		PlanID:         req.PlanID,
		BillingCycle:   req.BillingCycle,
		DiscountCode:   req.DiscountCode,
		Amount:         req.Amount,
		Method:         req.Method,
		TransactionRef: req.TransactionRef,
		PaidAt:         paidAt,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Payment processed", dto)
}
