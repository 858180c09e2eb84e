package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trackteamhq/portal/internal/service"
	"go.uber.org/zap"
)

// respondError maps a service.Error straight to its status and message.
// Anything else is an internal failure: log the detail, return the generic
// fallback so connection strings and driver errors never reach the client.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	var svcErr service.Error
	if errors.As(err, &svcErr) {
		c.JSON(svcErr.Status, gin.H{"error": svcErr.Message})
		return
	}
	logger.Error(fallback, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
