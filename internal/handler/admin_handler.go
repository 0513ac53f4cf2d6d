package handler

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ald0405/whoop-backend-go/internal/analysis"
	"github.com/ald0405/whoop-backend-go/internal/analysis/ml"
	"github.com/ald0405/whoop-backend-go/internal/middleware"
	"github.com/ald0405/whoop-backend-go/internal/pipeline"
	"github.com/ald0405/whoop-backend-go/pkg/response"
)

const tokenTTL = 24 * time.Hour

// AdminHandler handles pipeline runs, model management and token
// issuance. This is a single-user deployment, so authentication is a
// shared secret rather than a user table.
type AdminHandler struct {
	pipeline *pipeline.Pipeline
	manager  *ml.Manager
	secret   string
	daysBack int
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(p *pipeline.Pipeline, manager *ml.Manager, secret string, daysBack int) *AdminHandler {
	return &AdminHandler{
		pipeline: p,
		manager:  manager,
		secret:   secret,
		daysBack: daysBack,
	}
}

type tokenRequest struct {
	Secret string `json:"secret" binding:"required"`
}

// IssueToken handles POST /api/v1/auth/token
func (h *AdminHandler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid token request")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		response.Unauthorized(c, "Invalid secret")
		return
	}

	token, err := middleware.IssueToken(h.secret, "admin", tokenTTL)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, gin.H{
		"token":      token,
		"expires_in": int(tokenTTL.Seconds()),
	})
}

// RunPipeline handles POST /api/v1/admin/pipeline/run
func (h *AdminHandler) RunPipeline(c *gin.Context) {
	days, ok := daysBackQuery(c)
	if !ok {
		return
	}
	if days == 0 {
		days = h.daysBack
	}

	report, err := h.pipeline.Run(days)
	if err != nil {
		var insufficient *analysis.InsufficientDataError
		if errors.As(err, &insufficient) {
			response.BadRequest(c, insufficient.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	// pick up the freshly trained models on the next prediction
	h.manager.Reload()

	response.Success(c, report)
}

// ModelStatus handles GET /api/v1/admin/models
func (h *AdminHandler) ModelStatus(c *gin.Context) {
	response.Success(c, gin.H{
		"trained": h.manager.ModelsExist(),
	})
}

// ReloadModels handles POST /api/v1/admin/models/reload
func (h *AdminHandler) ReloadModels(c *gin.Context) {
	h.manager.Reload()
	response.Success(c, gin.H{
		"reloaded": true,
	})
}
