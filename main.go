package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"sporthub-service/internal/auth"
	"sporthub-service/internal/config"
	"sporthub-service/internal/db"
	"sporthub-service/internal/handlers"
	"sporthub-service/internal/logger"
	"sporthub-service/internal/middleware"
	"sporthub-service/internal/observability"
	"sporthub-service/internal/rabbitmq"
	"sporthub-service/internal/realtime"
	"sporthub-service/internal/repositories"
	"sporthub-service/internal/telemetry"
	"sporthub-service/internal/verify"
	"sporthub-service/internal/ws"
)

const sessionLifetime = 7 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("production")
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.Environment)

	ctx := context.Background()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, "sporthub-service", cfg.Environment)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer func() {
		_ = shutdownTracing(context.Background())
	}()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}
	if err := db.Migrate(database); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	verifier := verify.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifyServiceSID)
	sessions := auth.NewService(cfg.JWTSecret, sessionLifetime)

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	groupMessageRepo := repositories.NewGroupMessageRepo(database)
	directMessageRepo := repositories.NewDirectMessageRepo(database)
	inviteRepo := repositories.NewInviteRepo(database)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	logger.Info().
		Str("mode", rabbitmq.PublisherMode(publisher)).
		Str("noop_reason", rabbitmq.PublisherNoopReason(publisher)).
		Msg("audit publisher ready")
	audit := telemetry.NewAuditEmitter(publisher, "audit.sporthub", "sporthub-service", cfg.Environment)

	if amqpPub, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(amqpPub)
		defer amqpPub.Close()
	} else {
		logger.Warn().Err(err).Msg("ws event publisher disabled")
	}

	hub := realtime.NewHub(groupMessageRepo.ListGroupMessages, directMessageRepo.GetUserMessages)
	notifier, err := realtime.NewPGListener(cfg.DatabaseURL,
		realtime.ChannelGroupMessages, realtime.ChannelDirectMessages)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open change listener")
	}
	defer notifier.Close()
	go hub.Run(ctx, notifier)

	verificationHandler := handlers.NewVerificationHandler(verifier, userRepo, sessions, audit)
	groupHandler := handlers.NewGroupHandler(groupRepo, groupMessageRepo, audit)
	dmHandler := handlers.NewDirectMessageHandler(directMessageRepo, audit)
	inviteHandler := handlers.NewInviteHandler(inviteRepo, groupRepo, audit)

	groupWS := ws.NewGroupFeedHandler(hub, groupRepo, sessions)
	inboxWS := ws.NewInboxFeedHandler(hub, sessions)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("sporthub-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	router.POST("/api/send-verification", verificationHandler.SendVerification)
	router.POST("/api/verify-code", verificationHandler.VerifyCode)

	authMiddleware := middleware.AuthMiddleware(sessions)
	api := router.Group("/api", authMiddleware)

	api.POST("/groups", groupHandler.CreateGroup)
	api.GET("/groups", groupHandler.ListGroups)
	api.GET("/groups/search", groupHandler.SearchGroups)
	api.GET("/groups/:group_id", groupHandler.GetGroup)
	api.POST("/groups/:group_id/join", groupHandler.JoinGroup)
	api.POST("/groups/:group_id/leave", groupHandler.LeaveGroup)
	api.GET("/groups/:group_id/messages", groupHandler.GetGroupMessages)
	api.POST("/groups/:group_id/messages", groupHandler.PostGroupMessage)

	api.POST("/messages", dmHandler.SendMessage)
	api.GET("/messages/unread", dmHandler.GetUnreadMessages)
	api.POST("/messages/:message_id/read", dmHandler.MarkMessageAsRead)
	api.GET("/conversations", dmHandler.GetRecentConversations)
	api.GET("/conversations/:user_id", dmHandler.GetConversation)

	api.POST("/groups/:group_id/invites", inviteHandler.CreateInvite)
	api.GET("/invites", inviteHandler.ListInvites)
	api.POST("/invites/:invite_id/accept", inviteHandler.AcceptInvite)
	api.POST("/invites/:invite_id/reject", inviteHandler.RejectInvite)
	api.POST("/groups/:group_id/join-requests", inviteHandler.CreateJoinRequest)
	api.GET("/groups/:group_id/join-requests", inviteHandler.ListJoinRequests)
	api.POST("/groups/:group_id/join-requests/:request_id/accept", inviteHandler.AcceptJoinRequest)
	api.POST("/groups/:group_id/join-requests/:request_id/reject", inviteHandler.RejectJoinRequest)

	router.GET("/ws/groups/:group_id", groupWS.Handle)
	router.GET("/ws/inbox", inboxWS.Handle)

	handlers.RegisterDebugRoutes(router, audit, cfg.EnableDebugRoutes)

	logger.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("starting server")
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
