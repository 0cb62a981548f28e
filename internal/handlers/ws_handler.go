package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gobwas/ws"

	"github.com/psg-placement/chat-service/internal/ratelimit"
	"github.com/psg-placement/chat-service/internal/realtime"
	"github.com/psg-placement/chat-service/internal/utils"
)

// WSHandler upgrades authenticated requests to chat websocket sessions
type WSHandler struct {
	BaseHandler
	session realtime.SessionConfig
	limiter *ratelimit.Limiter
}

func NewWSHandler(session realtime.SessionConfig, limiter *ratelimit.Limiter, logger utils.Logger) *WSHandler {
	return &WSHandler{
		BaseHandler: NewBaseHandler(logger),
		session:     session,
		limiter:     limiter,
	}
}

// Connect upgrades the request and runs the session until disconnect
// @Router /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	h.LogRequest(c, "Websocket connect")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if !h.limiter.Allow(c.Request.Context(), userID, ratelimit.RuleConnect) {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Message: "Too many connection attempts"})
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(c.Request, c.Writer)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	// The request context dies with this handler; the session runs on a
	// detached context for the lifetime of the connection.
	ctx := context.WithoutCancel(c.Request.Context())
	go realtime.NewSession(conn, userID, h.session).Run(ctx)
}
