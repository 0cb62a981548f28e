package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/psg-placement/chat-service/internal/repositories"
	"github.com/psg-placement/chat-service/internal/services"
	"github.com/psg-placement/chat-service/internal/utils"
	"github.com/psg-placement/chat-service/internal/validator"
)

// ChatHandler serves group listing, message history and REST sends
type ChatHandler struct {
	BaseHandler
	service services.ChatService
}

func NewChatHandler(service services.ChatService, logger utils.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListGroups returns the caller's groups
// @Router /groups [get]
func (h *ChatHandler) ListGroups(c *gin.Context) {
	h.LogRequest(c, "Listing groups")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	groups, err := h.service.ListGroups(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetMessages returns one page of group history, oldest first
// @Param before query int false "Return messages older than this id"
// @Param limit query int false "Page size (default 50, max 200)"
// @Router /groups/{id}/messages [get]
func (h *ChatHandler) GetMessages(c *gin.Context) {
	h.LogRequest(c, "Getting messages")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	groupID := c.Param("id")

	filters := repositories.MessageFilters{}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "limit must be a positive integer"})
			return
		}
		filters.Limit = limit
	}
	if beforeStr := c.Query("before"); beforeStr != "" {
		before, err := strconv.ParseUint(beforeStr, 10, 64)
		if err != nil || before == 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "before must be a positive integer"})
			return
		}
		cursor := uint(before)
		filters.Before = &cursor
	}

	page, err := h.service.GetMessages(c.Request.Context(), userID, groupID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// SendMessage posts a message over REST. The realtime path is the socket;
// this covers clients without one.
// @Router /groups/{id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	h.LogRequest(c, "Sending message")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	message, err := h.service.SendMessage(c.Request.Context(), userID, c.Param("id"), body.Content)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ListNotifications returns the caller's unread notifications
// @Router /notifications [get]
func (h *ChatHandler) ListNotifications(c *gin.Context) {
	h.LogRequest(c, "Listing notifications")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	notifications, err := h.service.UnreadNotifications(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationRead acknowledges one notification
// @Router /notifications/{id}/read [post]
func (h *ChatHandler) MarkNotificationRead(c *gin.Context) {
	h.LogRequest(c, "Marking notification read")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if err := h.service.MarkNotificationRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	if blocked, ok := services.IsModerationBlocked(err); ok {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Message blocked by content moderation",
			Details: map[string]interface{}{
				"reason":     blocked.Verdict.Reason,
				"categories": blocked.Verdict.FlaggedCategories(),
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Group not found"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found"})
	case errors.Is(err, services.ErrAccessDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
	default:
		utils.LoggerFromContext(c.Request.Context(), h.logger).Error("chat handler error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
