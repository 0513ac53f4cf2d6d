package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ald0405/whoop-backend-go/internal/service"
	"github.com/ald0405/whoop-backend-go/pkg/response"
)

// LifecycleHandler serves the training lifecycle segment.
type LifecycleHandler struct {
	detector *service.LifecycleDetector
}

// NewLifecycleHandler creates a new lifecycle handler
func NewLifecycleHandler(detector *service.LifecycleDetector) *LifecycleHandler {
	return &LifecycleHandler{
		detector: detector,
	}
}

// GetSegment handles GET /api/v1/lifecycle/segment
func (h *LifecycleHandler) GetSegment(c *gin.Context) {
	lookbackStr := c.DefaultQuery("lookback_days", "28")
	lookback, err := strconv.Atoi(lookbackStr)
	if err != nil || lookback < 7 || lookback > 365 {
		response.BadRequest(c, "Invalid lookback_days parameter")
		return
	}

	result, err := h.detector.DetectSegment(lookback)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, result)
}
