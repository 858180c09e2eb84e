package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/service"
	"go.uber.org/zap"
)

type AssignmentHandler struct {
	svc    *service.AssignmentService
	logger *zap.Logger
}

func NewAssignmentHandler(svc *service.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{svc: svc, logger: logger}
}

type upsertAssignmentRequest struct {
	EventName string `json:"event_name" binding:"required"`
	AthleteID string `json:"athlete_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
}

// Upsert handles POST /v1/meets/:id/assignments.
//
// Writing the same (event, athlete) pair twice edits the existing row in
// place; the response reports whether the call created, updated, or left
// the assignment unchanged.
func (h *AssignmentHandler) Upsert(c *gin.Context) {
	meetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet id"})
		return
	}

	var req upsertAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.svc.Upsert(c.Request.Context(), middleware.GetUserID(c), meetID, req.EventName, req.AthleteID, req.Status)
	if err != nil {
		respondError(c, h.logger, err, "failed to save assignment")
		return
	}

	status := http.StatusOK
	if outcome.Change == service.ChangeCreated {
		status = http.StatusCreated
	}
	c.JSON(status, outcome)
}

// List handles GET /v1/meets/:id/assignments. Coaching staff see the full
// lineup; athletes see only their own rows.
func (h *AssignmentHandler) List(c *gin.Context) {
	meetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet id"})
		return
	}

	assignments, err := h.svc.ListForMeet(c.Request.Context(), middleware.GetUserID(c), meetID)
	if err != nil {
		respondError(c, h.logger, err, "failed to list assignments")
		return
	}

	c.JSON(http.StatusOK, assignments)
}

// Delete handles DELETE /v1/assignments/:id. Idempotent.
func (h *AssignmentHandler) Delete(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignment id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserID(c), assignmentID); err != nil {
		respondError(c, h.logger, err, "failed to delete assignment")
		return
	}

	c.Status(http.StatusNoContent)
}
