// Package realtime pushes inbox updates to connected clients.
//
// Flow: a message write publishes the thread ID to each participant's Redis
// channel; every open inbox socket holds a subscription to its user's
// channel and reacts by re-fetching that user's thread summaries and
// pushing them down the websocket. The payload of the notification is
// intentionally not trusted as state — the re-fetch goes through the same
// participant-scoped query as a direct inbox load, so a forged or stale
// notification can never show a thread the user cannot read.
package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/trackteamhq/portal/internal/models"
	"go.uber.org/zap"
)

func inboxChannel(userID uuid.UUID) string {
	return "inbox:" + userID.String()
}

// Publisher fans a thread-changed notification out to participants.
type Publisher struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewPublisher(rdb *redis.Client, logger *zap.Logger) *Publisher {
	return &Publisher{rdb: rdb, logger: logger}
}

// NotifyThread publishes after the message is already committed; a publish
// failure only delays the recipient's inbox until their next manual load,
// so it is logged and not propagated to the sender.
func (p *Publisher) NotifyThread(ctx context.Context, participantIDs []uuid.UUID, threadID uuid.UUID) {
	for _, id := range participantIDs {
		if err := p.rdb.Publish(ctx, inboxChannel(id), threadID.String()).Err(); err != nil {
			p.logger.Warn("publish inbox notification failed",
				zap.String("user_id", id.String()),
				zap.Error(err),
			)
		}
	}
}

// SummaryFetcher is the slice of the thread repository a session needs.
type SummaryFetcher interface {
	ListSummaries(ctx context.Context, userID uuid.UUID) ([]models.ThreadSummary, error)
}

// Session is one user's live inbox subscription. Re-fetches are serialized:
// the loop below is the only goroutine that fetches or pushes, and the
// 1-buffered notify channel coalesces every notification that arrives while
// a re-fetch is in flight into at most one follow-up re-fetch.
type Session struct {
	userID  uuid.UUID
	fetcher SummaryFetcher
	push    func(summaries []models.ThreadSummary) error
	notify  chan struct{}
	logger  *zap.Logger
}

func NewSession(userID uuid.UUID, fetcher SummaryFetcher, push func([]models.ThreadSummary) error, logger *zap.Logger) *Session {
	return &Session{
		userID:  userID,
		fetcher: fetcher,
		push:    push,
		notify:  make(chan struct{}, 1),
		logger:  logger,
	}
}

// Notify requests a re-fetch. Non-blocking: if one is already pending the
// notification is dropped, because the pending re-fetch will observe the
// change anyway.
func (s *Session) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Run pushes an initial snapshot, then re-fetches on every coalesced
// notification until the context is cancelled. A push failure ends the
// session (the socket is gone); a fetch failure is logged and retried on
// the next notification.
func (s *Session) Run(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.notify:
			if err := s.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

func (s *Session) refresh(ctx context.Context) error {
	summaries, err := s.fetcher.ListSummaries(ctx, s.userID)
	if err != nil {
		s.logger.Warn("inbox refresh failed", zap.Error(err))
		return nil
	}
	if err := s.push(summaries); err != nil {
		return fmt.Errorf("push summaries: %w", err)
	}
	return nil
}

// Hub owns the Redis side and turns an upgraded websocket connection into a
// running session.
type Hub struct {
	rdb     *redis.Client
	fetcher SummaryFetcher
	logger  *zap.Logger
}

func NewHub(rdb *redis.Client, fetcher SummaryFetcher, logger *zap.Logger) *Hub {
	return &Hub{rdb: rdb, fetcher: fetcher, logger: logger}
}

// Serve runs the session for one connection. It returns when the client
// disconnects or ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, userID uuid.UUID) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pubsub := h.rdb.Subscribe(ctx, inboxChannel(userID))
	defer pubsub.Close()

	session := NewSession(userID, h.fetcher, func(summaries []models.ThreadSummary) error {
		return conn.WriteJSON(summaries)
	}, h.logger)

	// Redis pump: raw notifications -> coalesced session notify.
	go func() {
		for range pubsub.Channel() {
			session.Notify()
		}
	}()

	// Read pump: the client sends nothing meaningful, but reading is what
	// processes control frames and detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := session.Run(ctx); err != nil && ctx.Err() == nil {
		h.logger.Debug("inbox session ended", zap.Error(err))
	}
}
