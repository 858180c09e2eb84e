package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/trackteamhq/portal/internal/assistant"
	"github.com/trackteamhq/portal/internal/middleware"
	"go.uber.org/zap"
)

type AssistantHandler struct {
	assistant *assistant.Assistant
	logger    *zap.Logger
}

func NewAssistantHandler(a *assistant.Assistant, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: a, logger: logger}
}

type chatRequest struct {
	Messages []assistant.ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat handles POST /v1/assistant/chat. The assistant acts strictly as the
// requesting user; whatever the roster rules hide from them directly stays
// hidden in chat.
func (h *AssistantHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.assistant.Answer(c.Request.Context(), middleware.GetUserID(c), req.Messages)
	if err != nil {
		if errors.Is(err, assistant.ErrUpstream) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "the assistant is unavailable right now"})
			return
		}
		h.logger.Error("assistant answer failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "the assistant is unavailable right now"})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Reply: reply})
}
