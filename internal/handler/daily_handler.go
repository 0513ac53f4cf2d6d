package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/service"
	"github.com/ald0405/whoop-backend-go/pkg/response"
)

// DailyHandler serves the daily action card.
type DailyHandler struct {
	engine *service.DailyEngine
}

// NewDailyHandler creates a new daily plan handler
func NewDailyHandler(engine *service.DailyEngine) *DailyHandler {
	return &DailyHandler{
		engine: engine,
	}
}

// dailyPlanRequest carries optional environmental context fetched by
// the caller. All fields may be omitted.
type dailyPlanRequest struct {
	Weather   *models.WeatherContext `json:"weather,omitempty"`
	Transport []models.TransportLine `json:"transport,omitempty"`
	Tides     *models.TideContext    `json:"tides,omitempty"`
}

// GetPlan handles GET /api/v1/daily/plan
func (h *DailyHandler) GetPlan(c *gin.Context) {
	plan, err := h.engine.GeneratePlan(nil, nil, nil)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, plan)
}

// PostPlan handles POST /api/v1/daily/plan, accepting pre-fetched
// weather, transport and tide context in the body.
func (h *DailyHandler) PostPlan(c *gin.Context) {
	var req dailyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid context payload: "+err.Error())
		return
	}

	plan, err := h.engine.GeneratePlan(req.Weather, req.Transport, req.Tides)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, plan)
}
