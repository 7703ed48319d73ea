package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	requsecases "bandwave/internal/application/planrequest/usecases"
	"bandwave/internal/interfaces/http/middleware"
	"bandwave/internal/shared/logger"
	"bandwave/internal/shared/utils"
)

// PlanRequestHandler exposes the plan-change request workflow.
type PlanRequestHandler struct {
	submitUC  *requsecases.SubmitRequestUseCase
	approveUC *requsecases.ApproveRequestUseCase
	rejectUC  *requsecases.RejectRequestUseCase
	cancelUC  *requsecases.CancelRequestUseCase
	listUC    *requsecases.ListRequestsUseCase
	logger    logger.Interface
}

func NewPlanRequestHandler(
	submitUC *requsecases.SubmitRequestUseCase,
	approveUC *requsecases.ApproveRequestUseCase,
	rejectUC *requsecases.RejectRequestUseCase,
	cancelUC *requsecases.CancelRequestUseCase,
	listUC *requsecases.ListRequestsUseCase,
	logger logger.Interface,
) *PlanRequestHandler {
	return &PlanRequestHandler{
		submitUC:  submitUC,
		approveUC: approveUC,
		rejectUC:  rejectUC,
		cancelUC:  cancelUC,
		listUC:    listUC,
		logger:    logger,
	}
}

type submitRequestRequest struct {
	CustomerID      uint   `json:"customer_id" binding:"required"`
	RequestType     string `json:"request_type" binding:"required"`
	RequestedPlanID uint   `json:"requested_plan_id"`
	Reason          string `json:"reason"`
	Urgency         string `json:"urgency"`
	DiscountCode    string `json:"discount_code"`
}

// Submit handles POST /plan-requests.
func (h *PlanRequestHandler) Submit(c *gin.Context) {
	var req submitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.submitUC.Execute(c.Request.Context(), requsecases.SubmitRequestCommand{
		Actor:           middleware.GetActor(c),
		CustomerID:      req.CustomerID,
		RequestType:     req.RequestType,
		RequestedPlanID: req.RequestedPlanID,
		Reason:          req.Reason,
		Urgency:         req.Urgency,
		DiscountCode:    req.DiscountCode,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto, "Request submitted successfully")
}

type reviewRequestRequest struct {
	Comments      string `json:"comments"`
	InternalNotes string `json:"internal_notes"`
}

// Approve handles POST /plan-requests/:id/approve (admin only). An approval
// that fails execution is rolled back to pending and reported as compensated.
func (h *PlanRequestHandler) Approve(c *gin.Context) {
	requestID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req reviewRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.approveUC.Execute(c.Request.Context(), requsecases.ApproveRequestCommand{
		Actor:         middleware.GetActor(c),
		RequestID:     requestID,
		Comments:      req.Comments,
		InternalNotes: req.InternalNotes,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Request approved", dto)
}

// Reject handles POST /plan-requests/:id/reject (admin only).
func (h *PlanRequestHandler) Reject(c *gin.Context) {
	requestID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req reviewRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.rejectUC.Execute(c.Request.Context(), requsecases.RejectRequestCommand{
		Actor:         middleware.GetActor(c),
		RequestID:     requestID,
		Comments:      req.Comments,
		InternalNotes: req.InternalNotes,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Request rejected", dto)
}

// Cancel handles POST /plan-requests/:id/cancel.
func (h *PlanRequestHandler) Cancel(c *gin.Context) {
	requestID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.cancelUC.Execute(c.Request.Context(), requsecases.CancelRequestCommand{
		Actor:     middleware.GetActor(c),
		RequestID: requestID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Request cancelled", dto)
}

// Queue handles GET /plan-requests/queue (admin only): pending requests
// ordered by priority, paginated.
func (h *PlanRequestHandler) Queue(c *gin.Context) {
	page, pageSize := utils.ParsePagination(c, 20, 100)

	dto, err := h.listUC.ExecuteQueue(c.Request.Context(), requsecases.ListQueueQuery{
		Actor:  middleware.GetActor(c),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, dto.Requests, dto.Total, page, pageSize)
}

// ListByCustomer handles GET /customers/:customer_id/plan-requests.
func (h *PlanRequestHandler) ListByCustomer(c *gin.Context) {
	customerID, err := utils.ParseUintParam(c, "customer_id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	dtos, err := h.listUC.ExecuteByCustomer(c.Request.Context(), requsecases.ListCustomerRequestsQuery{
		Actor:      middleware.GetActor(c),
		CustomerID: customerID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dtos)
}
