package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/service"
	"github.com/ald0405/whoop-backend-go/pkg/response"
)

// AnalyticsHandler serves pre-computed analyzer payloads and the
// on-demand regression driver reports.
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
	}
}

// daysBackQuery parses the optional days_back query parameter. Zero
// means "use the configured default window".
func daysBackQuery(c *gin.Context) (int, bool) {
	daysStr := c.DefaultQuery("days_back", "0")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days < 0 {
		response.BadRequest(c, "Invalid days_back parameter")
		return 0, false
	}
	return days, true
}

// analysisError maps the analysis error taxonomy onto HTTP statuses.
func analysisError(c *gin.Context, err error) {
	var insufficient *analysis.InsufficientDataError
	switch {
	case errors.As(err, &insufficient):
		response.BadRequest(c, insufficient.Error())
	case errors.Is(err, service.ErrResultNotComputed):
		response.NotFound(c, err.Error())
	default:
		response.InternalError(c, err.Error())
	}
}

// GetResult handles GET /api/v1/analytics/results/:type
func (h *AnalyticsHandler) GetResult(c *gin.Context) {
	resultType := c.Param("type")
	if !service.KnownResultType(resultType) {
		response.BadRequest(c, "Unknown result type: "+resultType)
		return
	}

	days, ok := daysBackQuery(c)
	if !ok {
		return
	}

	result, err := h.analyticsService.GetResult(resultType, days)
	if err != nil {
		analysisError(c, err)
		return
	}
	response.Success(c, result)
}

// ListResults handles GET /api/v1/analytics/results
func (h *AnalyticsHandler) ListResults(c *gin.Context) {
	days, ok := daysBackQuery(c)
	if !ok {
		return
	}
	types, err := h.analyticsService.AvailableResults(days)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"available": types})
}

// RecoveryDrivers handles GET /api/v1/analytics/drivers/recovery
func (h *AnalyticsHandler) RecoveryDrivers(c *gin.Context) {
	days, ok := daysBackQuery(c)
	if !ok {
		return
	}
	report, err := h.analyticsService.RecoveryDrivers(days)
	if err != nil {
		analysisError(c, err)
		return
	}
	response.Success(c, report)
}

// HRVDrivers handles GET /api/v1/analytics/drivers/hrv
func (h *AnalyticsHandler) HRVDrivers(c *gin.Context) {
	days, ok := daysBackQuery(c)
	if !ok {
		return
	}
	report, err := h.analyticsService.HRVDrivers(days)
	if err != nil {
		analysisError(c, err)
		return
	}
	response.Success(c, report)
}
