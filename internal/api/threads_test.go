package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/models"
	"github.com/trackteamhq/portal/internal/policy"
	"go.uber.org/zap"
)

type fakeThreads struct {
	threads      map[uuid.UUID]*models.Thread
	participants map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeThreads() *fakeThreads {
	return &fakeThreads{
		threads:      make(map[uuid.UUID]*models.Thread),
		participants: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (f *fakeThreads) addThread(participantIDs ...uuid.UUID) uuid.UUID {
	th := &models.Thread{ID: uuid.New(), Kind: "group"}
	f.threads[th.ID] = th
	f.participants[th.ID] = make(map[uuid.UUID]bool)
	for _, id := range participantIDs {
		f.participants[th.ID][id] = true
	}
	return th.ID
}

func (f *fakeThreads) CreateWithParticipants(_ context.Context, kind string, subject *string, createdBy uuid.UUID, participantIDs []uuid.UUID) (*models.Thread, error) {
	th := &models.Thread{ID: uuid.New(), Kind: kind, Subject: subject, CreatedBy: createdBy}
	f.threads[th.ID] = th
	members := map[uuid.UUID]bool{createdBy: true}
	for _, id := range participantIDs {
		members[id] = true
	}
	f.participants[th.ID] = members
	return th, nil
}

func (f *fakeThreads) IsParticipant(_ context.Context, threadID, userID uuid.UUID) (bool, error) {
	return f.participants[threadID][userID], nil
}

func (f *fakeThreads) ListParticipants(_ context.Context, threadID uuid.UUID) ([]models.ThreadParticipant, error) {
	out := make([]models.ThreadParticipant, 0)
	for id := range f.participants[threadID] {
		out = append(out, models.ThreadParticipant{ThreadID: threadID, UserID: id})
	}
	return out, nil
}

func (f *fakeThreads) ListSummaries(_ context.Context, userID uuid.UUID) ([]models.ThreadSummary, error) {
	out := make([]models.ThreadSummary, 0)
	for threadID, members := range f.participants {
		if members[userID] {
			out = append(out, models.ThreadSummary{Thread: *f.threads[threadID]})
		}
	}
	return out, nil
}

func (f *fakeThreads) MarkRead(context.Context, uuid.UUID, uuid.UUID, time.Time) error {
	return nil
}

type fakeMessages struct {
	byThread map[uuid.UUID][]models.Message
	nextID   int64
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{byThread: make(map[uuid.UUID][]models.Message)}
}

func (f *fakeMessages) Create(_ context.Context, threadID, senderID uuid.UUID, body string) (*models.Message, error) {
	f.nextID++
	msg := models.Message{ID: f.nextID, ThreadID: threadID, SenderID: senderID, Body: body, CreatedAt: time.Now()}
	f.byThread[threadID] = append(f.byThread[threadID], msg)
	return &msg, nil
}

func (f *fakeMessages) ListByThread(_ context.Context, threadID uuid.UUID, before int64, limit int) ([]models.Message, error) {
	out := make([]models.Message, 0)
	msgs := f.byThread[threadID]
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if before > 0 && msgs[i].ID >= before {
			continue
		}
		out = append(out, msgs[i])
	}
	return out, nil
}

type recordedNotify struct {
	participantIDs []uuid.UUID
	threadID       uuid.UUID
}

type fakeNotifier struct {
	notified []recordedNotify
}

func (f *fakeNotifier) NotifyThread(_ context.Context, participantIDs []uuid.UUID, threadID uuid.UUID) {
	f.notified = append(f.notified, recordedNotify{participantIDs: participantIDs, threadID: threadID})
}

type apiProfiles struct {
	profiles map[uuid.UUID]*models.Profile
}

func (s *apiProfiles) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.profiles[id], nil
}

type threadTestEnv struct {
	router   *gin.Engine
	threads  *fakeThreads
	messages *fakeMessages
	notifier *fakeNotifier

	coachID   uuid.UUID
	athleteID uuid.UUID
	outsider  uuid.UUID
}

// asUser injects the authenticated principal the way the auth middleware
// would, without minting tokens.
func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, userID)
		c.Next()
	}
}

func newThreadTestEnv(t *testing.T, requester func(env *threadTestEnv) uuid.UUID) *threadTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &threadTestEnv{
		threads:   newFakeThreads(),
		messages:  newFakeMessages(),
		notifier:  &fakeNotifier{},
		coachID:   uuid.New(),
		athleteID: uuid.New(),
		outsider:  uuid.New(),
	}
	authz := policy.NewAuthorizer(&apiProfiles{profiles: map[uuid.UUID]*models.Profile{
		env.coachID:   {UserID: env.coachID, Role: "coach"},
		env.athleteID: {UserID: env.athleteID, Role: "athlete"},
		env.outsider:  {UserID: env.outsider, Role: "athlete"},
	}})
	handler := NewThreadHandler(env.threads, env.messages, authz, env.notifier, zap.NewNop())

	env.router = gin.New()
	env.router.Use(asUser(requester(env)))
	env.router.POST("/v1/threads", handler.Create)
	env.router.GET("/v1/threads", handler.List)
	env.router.GET("/v1/threads/:id/messages", handler.ListMessages)
	env.router.POST("/v1/threads/:id/messages", handler.CreateMessage)
	env.router.POST("/v1/threads/:id/read", handler.MarkRead)
	return env
}

// A non-participant listing a thread's messages gets 200 with an empty
// array — indistinguishable from an empty thread, and never the messages.
func TestListMessagesNonParticipantGetsEmptyList(t *testing.T) {
	env := newThreadTestEnv(t, func(e *threadTestEnv) uuid.UUID { return e.outsider })
	threadID := env.threads.addThread(env.coachID, env.athleteID)
	_, err := env.messages.Create(context.Background(), threadID, env.coachID, "practice moved to 4pm")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/threads/"+threadID.String()+"/messages", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
	assert.NotContains(t, w.Body.String(), "practice moved")
}

func TestListMessagesParticipant(t *testing.T) {
	env := newThreadTestEnv(t, func(e *threadTestEnv) uuid.UUID { return e.athleteID })
	threadID := env.threads.addThread(env.coachID, env.athleteID)
	_, err := env.messages.Create(context.Background(), threadID, env.coachID, "practice moved to 4pm")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/threads/"+threadID.String()+"/messages", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var msgs []models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msgs))
	require.Len(t, msgs, 1)
	assert.Equal(t, "practice moved to 4pm", msgs[0].Body)
}

func TestCreateMessageNonParticipantForbidden(t *testing.T) {
	env := newThreadTestEnv(t, func(e *threadTestEnv) uuid.UUID { return e.outsider })
	threadID := env.threads.addThread(env.coachID, env.athleteID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/threads/"+threadID.String()+"/messages",
		strings.NewReader(`{"body":"let me in"}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, env.messages.byThread[threadID])
	assert.Empty(t, env.notifier.notified)
}

// Any participant — athletes included — can append, and every participant
// gets notified after the write.
func TestCreateMessageParticipantNotifies(t *testing.T) {
	env := newThreadTestEnv(t, func(e *threadTestEnv) uuid.UUID { return e.athleteID })
	threadID := env.threads.addThread(env.coachID, env.athleteID)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/threads/"+threadID.String()+"/messages",
		strings.NewReader(`{"body":"will the bus leave at 7?"}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, env.messages.byThread[threadID], 1)

	require.Len(t, env.notifier.notified, 1)
	assert.Equal(t, threadID, env.notifier.notified[0].threadID)
	assert.ElementsMatch(t, []uuid.UUID{env.coachID, env.athleteID}, env.notifier.notified[0].participantIDs)
}

func TestCreateThreadAthleteForbidden(t *testing.T) {
	env := newThreadTestEnv(t, func(e *threadTestEnv) uuid.UUID { return e.athleteID })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/threads",
		strings.NewReader(`{"kind":"group","participant_ids":["`+env.coachID.String()+`"]}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, env.threads.threads)
}

func TestCreateThreadIncludesCreator(t *testing.T) {
	env := newThreadTestEnv(t, func(e *threadTestEnv) uuid.UUID { return e.coachID })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/threads",
		strings.NewReader(`{"kind":"direct","participant_ids":["`+env.athleteID.String()+`"]}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var th models.Thread
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &th))
	assert.True(t, env.threads.participants[th.ID][env.coachID])
	assert.True(t, env.threads.participants[th.ID][env.athleteID])
}

// The inbox listing is participant-scoped by construction.
func TestListThreadsOnlyOwn(t *testing.T) {
	env := newThreadTestEnv(t, func(e *threadTestEnv) uuid.UUID { return e.athleteID })
	mine := env.threads.addThread(env.coachID, env.athleteID)
	env.threads.addThread(env.coachID, env.outsider)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/threads", nil)
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var summaries []models.ThreadSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, mine, summaries[0].ID)
}
