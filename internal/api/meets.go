package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/policy"
	"github.com/trackteamhq/portal/internal/repository"
	"go.uber.org/zap"
)

type MeetHandler struct {
	meets  repository.MeetRepository
	events repository.MeetEventRepository
	authz  *policy.Authorizer
	logger *zap.Logger
}

func NewMeetHandler(meets repository.MeetRepository, events repository.MeetEventRepository, authz *policy.Authorizer, logger *zap.Logger) *MeetHandler {
	return &MeetHandler{meets: meets, events: events, authz: authz, logger: logger}
}

type meetRequest struct {
	Name     string  `json:"name" binding:"required"`
	Location string  `json:"location" binding:"required"`
	MeetDate string  `json:"meet_date" binding:"required"`
	Notes    *string `json:"notes"`
}

func (r *meetRequest) date() (time.Time, bool) {
	d, err := time.Parse("2006-01-02", r.MeetDate)
	return d, err == nil
}

// requireStaff resolves the requester's role from their own profile row and
// rejects non-staff writes with a 403.
func (h *MeetHandler) requireStaff(c *gin.Context) bool {
	_, err := h.authz.RequireCoachingStaff(c.Request.Context(), middleware.GetUserID(c))
	if err == nil {
		return true
	}
	if errors.Is(err, policy.ErrForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": "this action requires a coaching role"})
	} else {
		h.logger.Error("failed to resolve role", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
	}
	return false
}

// Create handles POST /v1/meets (coaching staff only).
func (h *MeetHandler) Create(c *gin.Context) {
	if !h.requireStaff(c) {
		return
	}

	var req meetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, ok := req.date()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meet_date must be YYYY-MM-DD"})
		return
	}

	meet, err := h.meets.Create(c.Request.Context(), req.Name, req.Location, date, req.Notes, middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to create meet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create meet"})
		return
	}

	c.JSON(http.StatusCreated, meet)
}

// List handles GET /v1/meets — readable by everyone authenticated.
func (h *MeetHandler) List(c *gin.Context) {
	meets, err := h.meets.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list meets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list meets"})
		return
	}

	c.JSON(http.StatusOK, meets)
}

// GetByID handles GET /v1/meets/:id.
func (h *MeetHandler) GetByID(c *gin.Context) {
	meetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet id"})
		return
	}

	meet, err := h.meets.GetByID(c.Request.Context(), meetID)
	if err != nil {
		h.logger.Error("failed to get meet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get meet"})
		return
	}
	if meet == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meet not found"})
		return
	}

	c.JSON(http.StatusOK, meet)
}

// Update handles PUT /v1/meets/:id (coaching staff only).
func (h *MeetHandler) Update(c *gin.Context) {
	if !h.requireStaff(c) {
		return
	}

	meetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet id"})
		return
	}

	var req meetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, ok := req.date()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "meet_date must be YYYY-MM-DD"})
		return
	}

	meet, err := h.meets.Update(c.Request.Context(), meetID, req.Name, req.Location, date, req.Notes)
	if err != nil {
		h.logger.Error("failed to update meet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update meet"})
		return
	}
	if meet == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meet not found"})
		return
	}

	c.JSON(http.StatusOK, meet)
}

// Delete handles DELETE /v1/meets/:id (coaching staff only).
func (h *MeetHandler) Delete(c *gin.Context) {
	if !h.requireStaff(c) {
		return
	}

	meetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet id"})
		return
	}

	if err := h.meets.Delete(c.Request.Context(), meetID); err != nil {
		h.logger.Error("failed to delete meet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete meet"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListEvents handles GET /v1/meets/:id/events.
func (h *MeetHandler) ListEvents(c *gin.Context) {
	meetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet id"})
		return
	}

	events, err := h.events.ListByMeet(c.Request.Context(), meetID)
	if err != nil {
		h.logger.Error("failed to list meet events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list meet events"})
		return
	}

	c.JSON(http.StatusOK, events)
}
