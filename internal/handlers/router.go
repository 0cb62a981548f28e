package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/psg-placement/chat-service/internal/config"
	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/ratelimit"
	"github.com/psg-placement/chat-service/internal/realtime"
	"github.com/psg-placement/chat-service/internal/repositories"
	"github.com/psg-placement/chat-service/internal/services"
	"github.com/psg-placement/chat-service/internal/utils"
)

type HandlerManager struct {
	chatHandler     *ChatHandler
	leetCodeHandler *LeetCodeHandler
	wsHandler       *WSHandler
	authMiddleware  *CasdoorAuthMiddleware
	serviceManager  services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	sessionConfig realtime.SessionConfig,
	limiter *ratelimit.Limiter,
	logger utils.Logger,
	cfg *config.Config,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(cfg.Casdoor, userRepo)

	return &HandlerManager{
		chatHandler:     NewChatHandler(serviceManager.Chat(), logger),
		leetCodeHandler: NewLeetCodeHandler(serviceManager.LeetCode(), limiter, cfg.CronSecret, logger),
		wsHandler:       NewWSHandler(sessionConfig, limiter, logger),
		authMiddleware:  authMiddleware,
		serviceManager:  serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// The scheduler authenticates with the shared secret, not a user token
	router.POST("/api/v1/leetcode/sync/batch",
		hm.leetCodeHandler.BatchSyncAuth(hm.authMiddleware),
		hm.leetCodeHandler.TriggerBatchSync)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Chat routes
		groups := v1.Group("/groups")
		{
			groups.GET("", hm.chatHandler.ListGroups)
			groups.GET("/:id/messages", hm.chatHandler.GetMessages)
			groups.POST("/:id/messages", hm.chatHandler.SendMessage)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		{
			notifications.GET("", hm.chatHandler.ListNotifications)
			notifications.POST("/:id/read", hm.chatHandler.MarkNotificationRead)
		}

		// LeetCode routes
		leetcode := v1.Group("/leetcode")
		{
			leetcode.POST("/sync", hm.leetCodeHandler.SyncProfile)
			leetcode.GET("/stats", hm.leetCodeHandler.GetStats)
			leetcode.GET("/leaderboard", hm.leetCodeHandler.Leaderboard)
			leetcode.GET("/export",
				hm.authMiddleware.RequireRoleMiddleware(models.RoleClassRep, models.RoleSuperAdmin),
				hm.leetCodeHandler.ExportStats)
		}

		// Realtime socket
		v1.GET("/ws", hm.wsHandler.Connect)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{
				"status":  "unhealthy",
				"service": "chat-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "chat-service",
		})
	})
}
