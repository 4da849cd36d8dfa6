package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relaydesk/internal/config"
	"relaydesk/internal/handler"
	"relaydesk/internal/middleware"
	"relaydesk/internal/redis"
	"relaydesk/internal/services"
	"relaydesk/internal/transport/httpdto"
	"relaydesk/internal/websocket"
	"relaydesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	db         *gorm.DB
	logger     *logger.Logger
}

var (
	ReleaseMode = "production"
	TestMode    = "test"
)

type Handlers struct {
	Webhook      *handler.WebhookHandler
	Message      *handler.MessageHandler
	Conversation *handler.ConversationHandler
	WS           *websocket.Handler
}

func New(cfg *config.Config, db *gorm.DB, l *logger.Logger) *Server {
	if cfg.Server.Environment == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Environment == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		db:     db,
		logger: l,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, tokens *services.TokenService, limiter *redis.RateLimiter) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	// provider-facing ingress, authenticated by signature not bearer token
	webhooks := s.engine.Group("/v1/webhooks")
	{
		webhooks.POST("/inbound", handlers.Webhook.Inbound)
		webhooks.POST("/status", handlers.Webhook.Status)
	}

	authed := s.engine.Group("/v1", middleware.AuthMiddleware(tokens))
	{
		authed.GET("/conversations", handlers.Conversation.List)
		authed.POST("/conversations", handlers.Conversation.Start)
		authed.POST("/conversations/:id/assign", handlers.Conversation.Assign)
		authed.POST("/conversations/:id/archive", handlers.Conversation.Archive)
		authed.POST("/conversations/:id/read", handlers.Conversation.MarkRead)
		authed.POST("/contacts/:id/opt-in", handlers.Conversation.SetOptIn)

		authed.GET("/messages", handlers.Message.List)
		authed.POST("/messages", middleware.SendRateLimitMiddleware(limiter), handlers.Message.Send)
	}

	s.engine.GET("/ws", handlers.WS.Connect)
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.Server.Port)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
