package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/psg-placement/chat-service/internal/config"
	"github.com/psg-placement/chat-service/internal/events"
	"github.com/psg-placement/chat-service/internal/handlers"
	"github.com/psg-placement/chat-service/internal/leetcode"
	"github.com/psg-placement/chat-service/internal/moderation"
	"github.com/psg-placement/chat-service/internal/ratelimit"
	"github.com/psg-placement/chat-service/internal/realtime"
	"github.com/psg-placement/chat-service/internal/repositories/postgres"
	"github.com/psg-placement/chat-service/internal/services"
	"github.com/psg-placement/chat-service/internal/utils"
	"github.com/psg-placement/chat-service/internal/validator"
	"github.com/psg-placement/chat-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize validator
	validator := validator.New()

	// Content moderation: external model when an API key is present, keyword
	// filter otherwise
	var moderator moderation.Moderator
	if cfg.Moderation.APIKey != "" {
		moderator = moderation.NewClient(moderation.ClientConfig{
			BaseURL: cfg.Moderation.BaseURL,
			APIKey:  cfg.Moderation.APIKey,
			Model:   cfg.Moderation.Model,
			Timeout: cfg.Moderation.Timeout,
		}, slogLogger)
	}
	engine := moderation.NewEngine(moderator, moderation.EngineConfig{
		Enabled:        cfg.Moderation.Enabled,
		BlockThreshold: cfg.Moderation.BlockThreshold,
	}, slogLogger)

	// Event publisher: kafka in deployment, in-process bus for development
	var publisher events.EventPublisher
	if cfg.Kafka.Enabled {
		publisher, err = events.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize kafka publisher: %v", err)
		}
	} else {
		publisher = events.NewGoChannelEventPublisher(cfg.Kafka.Topic, slogLogger)
	}

	// Realtime fan-out and rate limiting
	hub := realtime.NewHub(redisClient, slogLogger)
	limiter := ratelimit.NewLimiter(redisClient, slogLogger)
	sendRule := ratelimit.RuleSendMessage
	if cfg.Chat.SendLimitPerMinute > 0 {
		sendRule.Limit = cfg.Chat.SendLimitPerMinute
	}

	// Profile sync engine
	syncer := leetcode.NewSyncer(repo, leetcode.NewClient(cfg.LeetCode.BaseURL, slogLogger), leetcode.SyncConfig{
		BatchSize:  cfg.LeetCode.BatchSize,
		BatchDelay: cfg.LeetCode.BatchDelay,
	}, slogLogger)

	// Initialize services
	serviceManager := services.NewServiceManager(services.ServiceManagerConfig{
		Repository:  repo,
		Validator:   validator,
		Logger:      slogLogger,
		Engine:      engine,
		Broadcaster: hub,
		Publisher:   publisher,
		Syncer:      syncer,
		Chat: services.ChatServiceConfig{
			MaxMessageLength: cfg.Chat.MaxMessageLength,
			DefaultPageSize:  cfg.Chat.DefaultPageSize,
			MaxPageSize:      cfg.Chat.MaxPageSize,
		},
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	sessionConfig := realtime.SessionConfig{
		Chat:     serviceManager.Chat(),
		Hub:      hub,
		Limiter:  limiter,
		Logger:   slogLogger,
		SendRule: sendRule,
	}
	handlerManager := handlers.NewHandlerManager(serviceManager, sessionConfig, limiter, logger, cfg, repo.User())

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Nightly profile sync
	scheduler := cron.New()
	if cfg.LeetCode.SyncEnabled {
		_, err := scheduler.AddFunc(cfg.LeetCode.SyncSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			if _, err := serviceManager.LeetCode().SyncAll(ctx, nil); err != nil {
				logger.Error("Scheduled sync failed", "error", err)
			}
		})
		if err != nil {
			log.Fatalf("Failed to schedule profile sync: %v", err)
		}
		scheduler.Start()
		logger.Info("Scheduled profile sync", "schedule", cfg.LeetCode.SyncSchedule)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduled jobs and wait for a running sync to finish or time out
	cronCtx := scheduler.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
	}

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Close database connection
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}
