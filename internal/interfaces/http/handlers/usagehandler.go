package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	usageusecases "bandwave/internal/application/usage/usecases"
	"bandwave/internal/interfaces/http/middleware"
	"bandwave/internal/shared/logger"
	"bandwave/internal/shared/utils"
)

// UsageHandler ingests usage reports from the access network and serves
// per-period summaries.
type UsageHandler struct {
	recordUC  *usageusecases.RecordUsageUseCase
	summaryUC *usageusecases.GetUsageSummaryUseCase
	logger    logger.Interface
}

func NewUsageHandler(
	recordUC *usageusecases.RecordUsageUseCase,
	summaryUC *usageusecases.GetUsageSummaryUseCase,
	logger logger.Interface,
) *UsageHandler {
	return &UsageHandler{
		recordUC:  recordUC,
		summaryUC: summaryUC,
		logger:    logger,
	}
}

type recordUsageRequest struct {
	BytesUp             uint64     `json:"bytes_up"`
	BytesDown           uint64     `json:"bytes_down"`
	SessionDurationSecs int64      `json:"session_duration_secs"`
	SpeedMbps           float64    `json:"speed_mbps"`
	ReportedAt          *time.Time `json:"reported_at"`
}

// Record handles POST /subscriptions/:id/usage. The reporting path is
// system-to-system; gateways call it with the system role.
func (h *UsageHandler) Record(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req recordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reportedAt := time.Now().UTC()
	if req.ReportedAt != nil {
		reportedAt = *req.ReportedAt
	}

	result, err := h.recordUC.Execute(c.Request.Context(), usageusecases.RecordUsageCommand{
		SubscriptionID:  subscriptionID,
		BytesUp:         req.BytesUp,
		BytesDown:       req.BytesDown,
		SessionDuration: time.Duration(req.SessionDurationSecs) * time.Second,
		SpeedMbps:       req.SpeedMbps,
		ReportedAt:      reportedAt,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Usage recorded", result)
}

// Summary handles GET /subscriptions/:id/usage. The optional at parameter
// (RFC 3339) selects a past period; the default is the current one.
func (h *UsageHandler) Summary(c *gin.Context) {
	subscriptionID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var at *time.Time
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "invalid at parameter, expected RFC 3339")
			return
		}
		at = &parsed
	}

	dto, err := h.summaryUC.Execute(c.Request.Context(), usageusecases.GetUsageSummaryQuery{
		Actor:          middleware.GetActor(c),
		SubscriptionID: subscriptionID,
		At:             at,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", dto)
}
