package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/policy"
	"github.com/trackteamhq/portal/internal/repository"
	"go.uber.org/zap"
)

type AnnouncementHandler struct {
	repo   repository.AnnouncementRepository
	authz  *policy.Authorizer
	logger *zap.Logger
}

func NewAnnouncementHandler(repo repository.AnnouncementRepository, authz *policy.Authorizer, logger *zap.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{repo: repo, authz: authz, logger: logger}
}

func (h *AnnouncementHandler) requireStaff(c *gin.Context) bool {
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

type announcementRequest struct {
	Title  string  `json:"title" binding:"required"`
	Body   *string `json:"body"`
	Pinned bool    `json:"pinned"`
}

// Create handles POST /v1/announcements (coaching staff only).
func (h *AnnouncementHandler) Create(c *gin.Context) {
	if !h.requireStaff(c) {
		return
	}

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.repo.Create(c.Request.Context(), req.Title, req.Body, req.Pinned, middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to create announcement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create announcement"})
		return
	}

	c.JSON(http.StatusCreated, a)
}

// List handles GET /v1/announcements — readable by everyone authenticated,
// pinned first.
func (h *AnnouncementHandler) List(c *gin.Context) {
	announcements, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list announcements", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list announcements"})
		return
	}

	c.JSON(http.StatusOK, announcements)
}

// Update handles PUT /v1/announcements/:id (coaching staff only).
func (h *AnnouncementHandler) Update(c *gin.Context) {
	if !h.requireStaff(c) {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}

	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := h.repo.Update(c.Request.Context(), id, req.Title, req.Body, req.Pinned)
	if err != nil {
		h.logger.Error("failed to update announcement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update announcement"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "announcement not found"})
		return
	}

	c.JSON(http.StatusOK, a)
}

// Delete handles DELETE /v1/announcements/:id (coaching staff only).
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if !h.requireStaff(c) {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid announcement id"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("failed to delete announcement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete announcement"})
		return
	}

	c.Status(http.StatusNoContent)
}
