package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/ats-pipeline/internal/application/service"
	"github.com/garyjia/ats-pipeline/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	transitions service.TransitionService
	queries     service.ApplicationQueryService
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	transitions service.TransitionService,
	queries service.ApplicationQueryService,
	logger Logger,
) *Handlers {
	return &Handlers{
		transitions: transitions,
		queries:     queries,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateApplicationRequest is the body of POST /applications.
// CandidateID defaults to the caller.
type CreateApplicationRequest struct {
	JobID       int64 `json:"job_id" binding:"required,gt=0"`
	CandidateID int64 `json:"candidate_id"`
}

// ChangeStageRequest is the body of POST /applications/:id/stage.
// At least one of Version and FromStage must describe what the caller last saw.
type ChangeStageRequest struct {
	Stage     string `json:"stage" binding:"required"`
	Version   int64  `json:"version" binding:"gte=0"`
	FromStage string `json:"from_stage"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Me handles GET /api/v1/me
func (h *Handlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: actorFrom(c)})
}

// CreateApplication handles POST /api/v1/applications
func (h *Handlers) CreateApplication(c *gin.Context) {
	var req CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, CodeInvalidRequest, "job_id is required")
		return
	}

	actor := actorFrom(c)
	candidateID := req.CandidateID
	if candidateID == 0 {
		candidateID = actor.UserID
	}

	app, err := h.transitions.CreateApplication(c.Request.Context(), actor, candidateID, req.JobID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: app})
}

// ListApplications handles GET /api/v1/applications
func (h *Handlers) ListApplications(c *gin.Context) {
	apps, err := h.queries.ListForActor(c.Request.Context(), actorFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: apps})
}

// GetApplication handles GET /api/v1/applications/:id
func (h *Handlers) GetApplication(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	app, err := h.queries.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// ChangeStage handles POST /api/v1/applications/:id/stage
func (h *Handlers) ChangeStage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ChangeStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, CodeInvalidRequest, "stage is required and version must not be negative")
		return
	}

	if req.Version == 0 && req.FromStage == "" {
		badRequest(c, CodeInvalidRequest, "version or from_stage is required")
		return
	}

	target, err := workflow.ParseStage(req.Stage)
	if err != nil {
		writeError(c, err)
		return
	}

	expected := service.Expectation{Version: req.Version}
	if req.FromStage != "" {
		if expected.Stage, err = workflow.ParseStage(req.FromStage); err != nil {
			writeError(c, err)
			return
		}
	}

	app, err := h.transitions.ChangeStageByID(c.Request.Context(), id, expected, actorFrom(c), target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: app})
}

// ListHistory handles GET /api/v1/applications/:id/history
func (h *Handlers) ListHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	entries, err := h.queries.ListHistory(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: entries})
}

// ListJobApplications handles GET /api/v1/jobs/:id/applications
func (h *Handlers) ListJobApplications(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	apps, err := h.queries.ListForJob(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: apps})
}

func pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, CodeInvalidRequest, "invalid id "+strconv.Quote(idStr))
		return 0, false
	}
	return id, true
}
