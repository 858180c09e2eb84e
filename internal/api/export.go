package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/export"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/repository"
	"github.com/trackteamhq/portal/internal/service"
	"go.uber.org/zap"
)

type ExportHandler struct {
	meets       repository.MeetRepository
	assignments *service.AssignmentService
	logger      *zap.Logger
}

func NewExportHandler(meets repository.MeetRepository, assignments *service.AssignmentService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{meets: meets, assignments: assignments, logger: logger}
}

// MeetSheet handles GET /v1/meets/:id/export. The rows are fetched through
// the requester's own role-scoped read — an athlete exporting gets a sheet
// of their own assignments only — and the PDF generator just renders what
// it is handed.
func (h *ExportHandler) MeetSheet(c *gin.Context) {
	meetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet id"})
		return
	}

	meet, err := h.meets.GetByID(c.Request.Context(), meetID)
	if err != nil {
		h.logger.Error("failed to get meet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export meet sheet"})
		return
	}
	if meet == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meet not found"})
		return
	}

	assignments, err := h.assignments.ListForMeet(c.Request.Context(), middleware.GetUserID(c), meetID)
	if err != nil {
		respondError(c, h.logger, err, "failed to export meet sheet")
		return
	}

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meet.Name+" meet sheet.pdf"))
	c.Status(http.StatusOK)

	if err := export.MeetSheet(c.Writer, meet, assignments); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("failed to render meet sheet", zap.Error(err))
	}
}
