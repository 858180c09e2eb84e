package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/service"
	"go.uber.org/zap"
)

type ResultHandler struct {
	svc    *service.ResultService
	logger *zap.Logger
}

func NewResultHandler(svc *service.ResultService, logger *zap.Logger) *ResultHandler {
	return &ResultHandler{svc: svc, logger: logger}
}

type createResultRequest struct {
	AthleteID string `json:"athlete_id" binding:"required"`
	Mark      string `json:"mark" binding:"required"`
	// Place and Points are strings on the wire: the entry form sends text,
	// and "" must mean "not provided" rather than zero.
	Place  string `json:"place"`
	Points string `json:"points"`
	Notes  string `json:"notes"`
}

// Create handles POST /v1/meet-events/:id/results.
//
// A second result for the same (event, athlete) pair is rejected with a
// 409 telling the coach to delete the existing result first — marks are
// never silently overwritten.
func (h *ResultHandler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet event id"})
		return
	}

	var req createResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	athleteID, err := uuid.Parse(req.AthleteID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid athlete id"})
		return
	}

	result, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), service.CreateResultInput{
		MeetEventID: eventID,
		AthleteID:   athleteID,
		Mark:        req.Mark,
		Place:       req.Place,
		Points:      req.Points,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to record result")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListForMeet handles GET /v1/meets/:id/results.
func (h *ResultHandler) ListForMeet(c *gin.Context) {
	meetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meet id"})
		return
	}

	results, err := h.svc.ListForMeet(c.Request.Context(), middleware.GetUserID(c), meetID)
	if err != nil {
		respondError(c, h.logger, err, "failed to list results")
		return
	}

	c.JSON(http.StatusOK, results)
}

// ListForAthlete handles GET /v1/athletes/:id/results. Non-self,
// non-staff requesters get an empty list.
func (h *ResultHandler) ListForAthlete(c *gin.Context) {
	athleteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid athlete id"})
		return
	}

	results, err := h.svc.ListForAthlete(c.Request.Context(), middleware.GetUserID(c), athleteID)
	if err != nil {
		respondError(c, h.logger, err, "failed to list results")
		return
	}

	c.JSON(http.StatusOK, results)
}

// Delete handles DELETE /v1/results/:id, freeing the (event, athlete) pair
// for a corrected entry.
func (h *ResultHandler) Delete(c *gin.Context) {
	resultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserID(c), resultID); err != nil {
		respondError(c, h.logger, err, "failed to delete result")
		return
	}

	c.Status(http.StatusNoContent)
}
