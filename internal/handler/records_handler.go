package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/repository"
	"github.com/ald0405/whoop-backend-go/pkg/response"
)

const defaultListLimit = 30

// RecordsHandler handles HTTP requests for the raw health records:
// recoveries, sleeps, cycles, workouts and weights.
type RecordsHandler struct {
	recoveries *repository.RecoveryRepository
	sleeps     *repository.SleepRepository
	cycles     *repository.CycleRepository
	workouts   *repository.WorkoutRepository
	weights    *repository.WeightRepository
}

// NewRecordsHandler creates a new records handler
func NewRecordsHandler(
	recoveries *repository.RecoveryRepository,
	sleeps *repository.SleepRepository,
	cycles *repository.CycleRepository,
	workouts *repository.WorkoutRepository,
	weights *repository.WeightRepository,
) *RecordsHandler {
	return &RecordsHandler{
		recoveries: recoveries,
		sleeps:     sleeps,
		cycles:     cycles,
		workouts:   workouts,
		weights:    weights,
	}
}

func listLimit(c *gin.Context) (int, bool) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defaultListLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 1000 {
		response.BadRequest(c, "Invalid limit parameter")
		return 0, false
	}
	return limit, true
}

// ListRecoveries handles GET /api/v1/recoveries
func (h *RecordsHandler) ListRecoveries(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	recs, err := h.recoveries.List(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, recs)
}

// LatestRecovery handles GET /api/v1/recoveries/latest
func (h *RecordsHandler) LatestRecovery(c *gin.Context) {
	rec, err := h.recoveries.Latest()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	if rec == nil {
		response.NotFound(c, "No recovery records yet")
		return
	}
	response.Success(c, rec)
}

// UpsertRecovery handles POST /api/v1/recoveries
func (h *RecordsHandler) UpsertRecovery(c *gin.Context) {
	var rec models.Recovery
	if err := c.ShouldBindJSON(&rec); err != nil {
		response.BadRequest(c, "Invalid recovery payload: "+err.Error())
		return
	}
	if err := h.recoveries.Upsert(&rec); err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, rec)
}

// ListSleeps handles GET /api/v1/sleeps
func (h *RecordsHandler) ListSleeps(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	sleeps, err := h.sleeps.List(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, sleeps)
}

// GetSleep handles GET /api/v1/sleeps/:id
func (h *RecordsHandler) GetSleep(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid sleep id")
		return
	}
	sleep, err := h.sleeps.GetByID(id)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	if sleep == nil {
		response.NotFound(c, "Sleep not found")
		return
	}
	response.Success(c, sleep)
}

// UpsertSleep handles POST /api/v1/sleeps
func (h *RecordsHandler) UpsertSleep(c *gin.Context) {
	var sleep models.Sleep
	if err := c.ShouldBindJSON(&sleep); err != nil {
		response.BadRequest(c, "Invalid sleep payload: "+err.Error())
		return
	}
	if err := h.sleeps.Upsert(&sleep); err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, sleep)
}

// ListCycles handles GET /api/v1/cycles
func (h *RecordsHandler) ListCycles(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	cycles, err := h.cycles.List(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, cycles)
}

// UpsertCycle handles POST /api/v1/cycles
func (h *RecordsHandler) UpsertCycle(c *gin.Context) {
	var cycle models.Cycle
	if err := c.ShouldBindJSON(&cycle); err != nil {
		response.BadRequest(c, "Invalid cycle payload: "+err.Error())
		return
	}
	if err := h.cycles.Upsert(&cycle); err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, cycle)
}

// ListWorkouts handles GET /api/v1/workouts
func (h *RecordsHandler) ListWorkouts(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	workouts, err := h.workouts.List(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, workouts)
}

// UpsertWorkout handles POST /api/v1/workouts
func (h *RecordsHandler) UpsertWorkout(c *gin.Context) {
	var workout models.Workout
	if err := c.ShouldBindJSON(&workout); err != nil {
		response.BadRequest(c, "Invalid workout payload: "+err.Error())
		return
	}
	if err := h.workouts.Upsert(&workout); err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, workout)
}

// ListWeights handles GET /api/v1/weights
func (h *RecordsHandler) ListWeights(c *gin.Context) {
	limit, ok := listLimit(c)
	if !ok {
		return
	}
	weights, err := h.weights.List(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, weights)
}

// CreateWeight handles POST /api/v1/weights
func (h *RecordsHandler) CreateWeight(c *gin.Context) {
	var weight models.Weight
	if err := c.ShouldBindJSON(&weight); err != nil {
		response.BadRequest(c, "Invalid weight payload: "+err.Error())
		return
	}
	if err := h.weights.Create(&weight); err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, weight)
}
