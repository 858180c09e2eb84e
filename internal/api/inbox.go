package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/trackteamhq/portal/internal/auth"
	"github.com/trackteamhq/portal/internal/realtime"
	"go.uber.org/zap"
)

// InboxHandler upgrades GET /v1/inbox/ws to a websocket that streams thread
// summaries whenever the user's inbox changes.
type InboxHandler struct {
	hub       *realtime.Hub
	jwtSecret string
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

func NewInboxHandler(hub *realtime.Hub, jwtSecret string, logger *zap.Logger) *InboxHandler {
	return &InboxHandler{
		hub:       hub,
		jwtSecret: jwtSecret,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Serve authenticates via a token query parameter — browsers cannot set an
// Authorization header on a websocket handshake — then hands the connection
// to the hub.
func (h *InboxHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := auth.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.hub.Serve(c.Request.Context(), conn, claims.UserID)
}
