package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"
	"github.com/trackteamhq/portal/internal/api"
	"github.com/trackteamhq/portal/internal/assistant"
	"github.com/trackteamhq/portal/internal/config"
	"github.com/trackteamhq/portal/internal/db"
	"github.com/trackteamhq/portal/internal/middleware"
	"github.com/trackteamhq/portal/internal/observ"
	"github.com/trackteamhq/portal/internal/policy"
	"github.com/trackteamhq/portal/internal/realtime"
	"github.com/trackteamhq/portal/internal/repository/postgres"
	"github.com/trackteamhq/portal/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no request deadline; Background() is the right root here.
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Stores share the one pool; it is goroutine-safe.
	pool := database.Pool()
	userStore := postgres.NewUserStore(pool)
	profileStore := postgres.NewProfileStore(pool)
	accountStore := postgres.NewAccountStore(pool)
	meetStore := postgres.NewMeetStore(pool)
	meetEventStore := postgres.NewMeetEventStore(pool)
	assignmentStore := postgres.NewAssignmentStore(pool)
	resultStore := postgres.NewResultStore(pool)
	announcementStore := postgres.NewAnnouncementStore(pool)
	threadStore := postgres.NewThreadStore(pool)
	messageStore := postgres.NewMessageStore(pool)

	// One Authorizer for every role decision — handlers, services, and the
	// assistant's tools all resolve roles through the same profile lookup.
	authz := policy.NewAuthorizer(profileStore)

	accountSvc := service.NewAccountService(accountStore, authz)
	assignmentSvc := service.NewAssignmentService(meetStore, meetEventStore, assignmentStore, profileStore, authz)
	resultSvc := service.NewResultService(meetEventStore, resultStore, profileStore, authz)

	publisher := realtime.NewPublisher(rdb, logger)
	hub := realtime.NewHub(rdb, threadStore, logger)

	toolset := assistant.NewToolset(meetStore, announcementStore, accountSvc, assignmentSvc, resultSvc)
	aiClient := openai.NewClient(cfg.OpenAIAPIKey)
	asst := assistant.New(aiClient, toolset, cfg.AssistantModel, logger)

	authHandler := api.NewAuthHandler(userStore, cfg.JWTSecret, logger)
	accountHandler := api.NewAccountHandler(accountSvc, profileStore, logger)
	meetHandler := api.NewMeetHandler(meetStore, meetEventStore, authz, logger)
	assignmentHandler := api.NewAssignmentHandler(assignmentSvc, logger)
	resultHandler := api.NewResultHandler(resultSvc, logger)
	announcementHandler := api.NewAnnouncementHandler(announcementStore, authz, logger)
	threadHandler := api.NewThreadHandler(threadStore, messageStore, authz, publisher, logger)
	inboxHandler := api.NewInboxHandler(hub, cfg.JWTSecret, logger)
	assistantHandler := api.NewAssistantHandler(asst, logger)
	exportHandler := api.NewExportHandler(meetStore, assignmentSvc, logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	logger.Info("starting track team portal",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	// Public: health for load balancers, login for everyone else.
	srv.GET("/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	srv.POST("/v1/auth/login", authHandler.Login)

	// The websocket handshake carries its token as a query parameter, so it
	// lives outside the bearer-header group.
	srv.GET("/v1/inbox/ws", inboxHandler.Serve)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	v1.GET("/users/me", accountHandler.GetMe)
	v1.PATCH("/users/me", accountHandler.UpdateMe)

	v1.POST("/accounts", accountHandler.Create)
	v1.GET("/accounts", accountHandler.List)
	v1.PATCH("/accounts/:id", accountHandler.Update)
	v1.DELETE("/accounts/:id", accountHandler.Deactivate)

	v1.POST("/meets", meetHandler.Create)
	v1.GET("/meets", meetHandler.List)
	v1.GET("/meets/:id", meetHandler.GetByID)
	v1.PUT("/meets/:id", meetHandler.Update)
	v1.DELETE("/meets/:id", meetHandler.Delete)
	v1.GET("/meets/:id/events", meetHandler.ListEvents)
	v1.GET("/meets/:id/export", exportHandler.MeetSheet)

	v1.POST("/meets/:id/assignments", assignmentHandler.Upsert)
	v1.GET("/meets/:id/assignments", assignmentHandler.List)
	v1.DELETE("/assignments/:id", assignmentHandler.Delete)

	v1.POST("/meet-events/:id/results", resultHandler.Create)
	v1.GET("/meets/:id/results", resultHandler.ListForMeet)
	v1.GET("/athletes/:id/results", resultHandler.ListForAthlete)
	v1.DELETE("/results/:id", resultHandler.Delete)

	v1.POST("/announcements", announcementHandler.Create)
	v1.GET("/announcements", announcementHandler.List)
	v1.PUT("/announcements/:id", announcementHandler.Update)
	v1.DELETE("/announcements/:id", announcementHandler.Delete)

	v1.POST("/threads", threadHandler.Create)
	v1.GET("/threads", threadHandler.List)
	v1.GET("/threads/:id/messages", threadHandler.ListMessages)
	v1.POST("/threads/:id/messages", threadHandler.CreateMessage)
	v1.POST("/threads/:id/read", threadHandler.MarkRead)

	v1.POST("/assistant/chat", assistantHandler.Chat)

	return srv.Run(":" + cfg.Port)
}
