package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	planusecases "bandwave/internal/application/plan/usecases"
	"bandwave/internal/interfaces/http/middleware"
	"bandwave/internal/shared/logger"
	"bandwave/internal/shared/utils"
)

type PlanHandler struct {
	createPlanUC *planusecases.CreatePlanUseCase
	listPlansUC  *planusecases.ListPlansUseCase
	logger       logger.Interface
}

func NewPlanHandler(
	createPlanUC *planusecases.CreatePlanUseCase,
	listPlansUC *planusecases.ListPlansUseCase,
	logger logger.Interface,
) *PlanHandler {
	return &PlanHandler{
		createPlanUC: createPlanUC,
		listPlansUC:  listPlansUC,
		logger:       logger,
	}
}

type createPlanRequest struct {
	Name           string          `json:"name" binding:"required"`
	Slug           string          `json:"slug" binding:"required"`
	Description    string          `json:"description"`
	MonthlyPrice   decimal.Decimal `json:"monthly_price" binding:"required"`
	YearlyPrice    decimal.Decimal `json:"yearly_price" binding:"required"`
	Currency       string          `json:"currency" binding:"required,len=3"`
	DataLimitBytes uint64          `json:"data_limit_bytes"`
	SpeedMbps      uint            `json:"speed_mbps"`
}

// CreatePlan handles POST /plans (admin only).
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dto, err := h.createPlanUC.Execute(c.Request.Context(), planusecases.CreatePlanCommand{
		Actor:          middleware.GetActor(c),
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		MonthlyPrice:   req.MonthlyPrice,
		YearlyPrice:    req.YearlyPrice,
		Currency:       req.Currency,
		DataLimitBytes: req.DataLimitBytes,
		SpeedMbps:      req.SpeedMbps,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, dto, "Plan created successfully")
}

// ListPlans handles GET /plans.
func (h *PlanHandler) ListPlans(c *gin.Context) {
	plans, err := h.listPlansUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", plans)
}

// GetPlan handles GET /plans/:id.
func (h *PlanHandler) GetPlan(c *gin.Context) {
	planID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.listPlansUC.ExecuteGet(c.Request.Context(), planID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto)
}
