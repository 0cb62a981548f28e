package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/psg-placement/chat-service/internal/utils"
)

// ErrorResponse is the JSON error body returned by every handler
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries the pieces shared by all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a base handler
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs the start of a handler with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string) {
	utils.LoggerFromContext(c.Request.Context(), h.logger).Debug(msg,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)
}
