package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ald0405/whoop-backend-go/internal/analysis/ml"
	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/service"
	"github.com/ald0405/whoop-backend-go/pkg/response"
)

// ScenarioHandler serves what-if recovery predictions.
type ScenarioHandler struct {
	planner *service.ScenarioPlanner
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(planner *service.ScenarioPlanner) *ScenarioHandler {
	return &ScenarioHandler{
		planner: planner,
	}
}

// Predict handles POST /api/v1/scenarios/predict
func (h *ScenarioHandler) Predict(c *gin.Context) {
	var req models.ScenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid scenario payload: "+err.Error())
		return
	}

	result, err := h.planner.PredictScenario(req.Scenario)
	if err != nil {
		if errors.Is(err, ml.ErrModelUnavailable) {
			response.ServiceUnavailable(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, result)
}

// Compare handles POST /api/v1/scenarios/compare
func (h *ScenarioHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid comparison payload: "+err.Error())
		return
	}

	result, err := h.planner.CompareScenarios(req.Scenarios)
	if err != nil {
		if errors.Is(err, ml.ErrModelUnavailable) {
			response.ServiceUnavailable(c, err.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, result)
}
