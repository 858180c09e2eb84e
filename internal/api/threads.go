package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/models"
	"github.com/trackteamhq/portal/internal/policy"
	"github.com/trackteamhq/portal/internal/repository"
	"go.uber.org/zap"
)

// ThreadNotifier pushes a thread-changed notification to participants;
// satisfied by realtime.Publisher.
type ThreadNotifier interface {
	NotifyThread(ctx context.Context, participantIDs []uuid.UUID, threadID uuid.UUID)
}

// ThreadHandler covers the messaging inbox. Participation in a thread is
// the entire authorization model here: every read and write first checks
// for a participant row naming the requester, and denied reads come back
// as empty results rather than errors so thread existence is never leaked.
type ThreadHandler struct {
	threads   repository.ThreadRepository
	messages  repository.MessageRepository
	authz     *policy.Authorizer
	publisher ThreadNotifier
	logger    *zap.Logger
}

func NewThreadHandler(
	threads repository.ThreadRepository,
	messages repository.MessageRepository,
	authz *policy.Authorizer,
	publisher ThreadNotifier,
	logger *zap.Logger,
) *ThreadHandler {
	return &ThreadHandler{
		threads:   threads,
		messages:  messages,
		authz:     authz,
		publisher: publisher,
		logger:    logger,
	}
}

type createThreadRequest struct {
	Kind           string   `json:"kind" binding:"required,oneof=direct group announcement"`
	Subject        *string  `json:"subject"`
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1"`
}

// Create handles POST /v1/threads (coaching staff only). Participants are
// fixed at creation; there is no later add-participant operation, so
// nobody can join a thread they were not put in.
func (h *ThreadHandler) Create(c *gin.Context) {
	userID := middleware.GetUserID(c)

	if _, err := h.authz.RequireCoachingStaff(c.Request.Context(), userID); err != nil {
		if errors.Is(err, policy.ErrForbidden) {
			c.JSON(http.StatusForbidden, gin.H{"error": "only coaching staff can start conversations"})
		} else {
			h.logger.Error("failed to resolve role", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
		}
		return
	}

	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participantIDs := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, raw := range req.ParticipantIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid participant id"})
			return
		}
		participantIDs = append(participantIDs, id)
	}

	thread, err := h.threads.CreateWithParticipants(c.Request.Context(), req.Kind, req.Subject, userID, participantIDs)
	if err != nil {
		h.logger.Error("failed to create thread", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create thread"})
		return
	}

	c.JSON(http.StatusCreated, thread)
}

// List handles GET /v1/threads — the requester's inbox. The query is
// participant-scoped, so this can only ever return the requester's threads.
func (h *ThreadHandler) List(c *gin.Context) {
	summaries, err := h.threads.ListSummaries(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to list threads", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list threads"})
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// ListMessages handles GET /v1/threads/:id/messages?before=123&limit=50.
//
// A non-participant receives 200 with an empty list — indistinguishable
// from a thread with no messages, deliberately.
func (h *ThreadHandler) ListMessages(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}
	userID := middleware.GetUserID(c)

	var before int64
	if b := c.Query("before"); b != "" {
		before, err = strconv.ParseInt(b, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'before' parameter"})
			return
		}
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		if limit > 100 {
			limit = 100
		}
	}

	member, err := h.threads.IsParticipant(c.Request.Context(), threadID, userID)
	if err != nil {
		h.logger.Error("failed to check participation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	if !member {
		c.JSON(http.StatusOK, []models.Message{})
		return
	}

	messages, err := h.messages.ListByThread(c.Request.Context(), threadID, before, limit)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

type createMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// CreateMessage handles POST /v1/threads/:id/messages. Any participant —
// athletes included — may append; writes by non-participants are rejected
// explicitly. After commit, participants are notified through Redis so
// open inboxes refresh.
func (h *ThreadHandler) CreateMessage(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}
	userID := middleware.GetUserID(c)

	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member, err := h.threads.IsParticipant(c.Request.Context(), threadID, userID)
	if err != nil {
		h.logger.Error("failed to check participation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a participant in this conversation"})
		return
	}

	msg, err := h.messages.Create(c.Request.Context(), threadID, userID, req.Body)
	if err != nil {
		h.logger.Error("failed to create message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	if participants, err := h.threads.ListParticipants(c.Request.Context(), threadID); err != nil {
		h.logger.Warn("failed to list participants for notification", zap.Error(err))
	} else {
		ids := make([]uuid.UUID, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.UserID)
		}
		h.publisher.NotifyThread(c.Request.Context(), ids, threadID)
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkRead handles POST /v1/threads/:id/read.
func (h *ThreadHandler) MarkRead(c *gin.Context) {
	threadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}
	userID := middleware.GetUserID(c)

	member, err := h.threads.IsParticipant(c.Request.Context(), threadID, userID)
	if err != nil {
		h.logger.Error("failed to check participation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a participant in this conversation"})
		return
	}

	if err := h.threads.MarkRead(c.Request.Context(), threadID, userID, time.Now()); err != nil {
		h.logger.Error("failed to mark read", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark read"})
		return
	}

	c.Status(http.StatusNoContent)
}
