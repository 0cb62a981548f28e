package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/psg-placement/chat-service/internal/events"
	"github.com/psg-placement/chat-service/internal/leetcode"
	"github.com/psg-placement/chat-service/internal/moderation"
	"github.com/psg-placement/chat-service/internal/repositories"
	"github.com/psg-placement/chat-service/internal/validator"
)

// ServiceManagerConfig holds the dependencies and settings for all services
type ServiceManagerConfig struct {
	Repository  repositories.Repository
	Validator   *validator.Validator
	Logger      *slog.Logger
	Engine      *moderation.Engine
	Broadcaster Broadcaster
	Publisher   events.EventPublisher
	Syncer      *leetcode.Syncer

	Chat ChatServiceConfig
}

// serviceManager implements ServiceManager
type serviceManager struct {
	config ServiceManagerConfig

	chatService     ChatService
	leetCodeService LeetCodeService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies
func NewServiceManager(config ServiceManagerConfig) ServiceManager {
	return &serviceManager{config: config}
}

// Initialize wires up all services
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	if err := sm.config.validate(); err != nil {
		return fmt.Errorf("invalid service manager config: %w", err)
	}

	sm.config.Logger.Info("Initializing service manager")

	sm.chatService = NewChatService(
		sm.config.Repository,
		sm.config.Engine,
		sm.config.Broadcaster,
		sm.config.Publisher,
		sm.config.Validator,
		sm.config.Logger,
		sm.config.Chat,
	)
	sm.config.Logger.Info("Chat service initialized")

	sm.leetCodeService = NewLeetCodeService(
		sm.config.Repository,
		sm.config.Syncer,
		sm.config.Publisher,
		sm.config.Validator,
		sm.config.Logger,
	)
	sm.config.Logger.Info("LeetCode service initialized")

	sm.initialized = true
	sm.config.Logger.Info("Service manager initialized successfully")

	return nil
}

func (c *ServiceManagerConfig) validate() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Validator == nil {
		return fmt.Errorf("validator is required")
	}
	if c.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if c.Engine == nil {
		return fmt.Errorf("moderation engine is required")
	}
	if c.Broadcaster == nil {
		return fmt.Errorf("broadcaster is required")
	}
	if c.Publisher == nil {
		return fmt.Errorf("event publisher is required")
	}
	if c.Syncer == nil {
		return fmt.Errorf("syncer is required")
	}
	return nil
}

// Service getters
func (sm *serviceManager) Chat() ChatService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.chatService == nil {
		panic("chat service not initialized")
	}
	return sm.chatService
}

func (sm *serviceManager) LeetCode() LeetCodeService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized || sm.leetCodeService == nil {
		panic("leetcode service not initialized")
	}
	return sm.leetCodeService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.config.Repository.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.config.Logger.Info("Shutting down service manager")

	if err := sm.config.Publisher.Close(); err != nil {
		sm.config.Logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.config.Logger.Info("Service manager shut down completed")

	return nil
}
