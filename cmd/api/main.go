package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"relaydesk/internal/config"
	"relaydesk/internal/events"
	"relaydesk/internal/handler"
	"relaydesk/internal/provider"
	"relaydesk/internal/redis"
	"relaydesk/internal/repository"
	"relaydesk/internal/server"
	"relaydesk/internal/services"
	"relaydesk/internal/storage"
	"relaydesk/internal/websocket"
	"relaydesk/pkg/database"
	"relaydesk/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg)
	if err != nil {
		l.Errorf("failed to connect to database: %s", err)
		return
	}
	if err := repository.InitSchema(db); err != nil {
		l.Errorf("failed to migrate schema: %s", err)
		return
	}

	redisClient := redis.NewClient(cfg.Redis)
	limiter := redis.NewRateLimiter(redisClient, redis.DefaultRateLimitConfig())

	businesses := repository.NewBusinessRepository(db)
	contacts := repository.NewContactRepository(db)
	conversations := repository.NewConversationRepository(db)
	messages := repository.NewMessageRepository(db)
	participants := repository.NewParticipantRepository(db)

	bus := events.NewRedisBus(redisClient, events.NewTenantChannelResolver(), l)

	var media services.MediaStore
	if cfg.Media.Bucket != "" {
		s3Client, err := storage.NewClient(context.Background(), storage.S3Config{
			Region:     cfg.Media.Region,
			Bucket:     cfg.Media.Bucket,
			PublicBase: cfg.Media.PublicBase,
		})
		if err != nil {
			l.Errorf("failed to init media storage: %s", err)
			return
		}
		media = services.NewMediaMirror(s3Client, l)
	}

	providerClient := provider.NewClient(cfg.Provider)
	tokens := services.NewTokenService(cfg.Auth)

	ingest := services.NewIngestService(businesses, contacts, conversations, messages, participants, bus, media, l)
	receipts := services.NewReceiptService(businesses, messages, bus, l)
	dispatch := services.NewDispatchService(conversations, contacts, messages, participants, providerClient, bus, l)
	conversationSvc := services.NewConversationService(conversations, contacts, messages, participants, bus, l)

	sweeper := services.NewDispatchSweeper(cfg.Sweeper, messages, dispatch, l)
	sweeper.Start()
	defer sweeper.Stop()

	hub := websocket.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	bridge := websocket.NewRedisBridge(bus, hub)
	go func() {
		if err := bridge.Run(hubCtx); err != nil && hubCtx.Err() == nil {
			l.Errorf("realtime bridge stopped: %s", err)
		}
	}()

	handlers := &server.Handlers{
		Webhook:      handler.NewWebhookHandler(ingest, receipts, cfg.Provider.SigningSecret, cfg.Server.PublicBaseURL, l),
		Message:      handler.NewMessageHandler(dispatch, conversationSvc),
		Conversation: handler.NewConversationHandler(conversationSvc),
		WS:           websocket.NewHandler(tokens, hub),
	}

	srv := server.New(cfg, db, l)
	srv.SetupRoutes(handlers, tokens, limiter)

	if err := srv.Start(); err != nil {
		l.Errorf("server exited with error: %s", err)
	}
}
