package handlers

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/psg-placement/chat-service/internal/models"
	"github.com/psg-placement/chat-service/internal/ratelimit"
	"github.com/psg-placement/chat-service/internal/services"
	"github.com/psg-placement/chat-service/internal/utils"
	"github.com/psg-placement/chat-service/internal/validator"
)

// LeetCodeHandler serves profile linking, stats, the leaderboard, exports
// and the batch sync trigger.
type LeetCodeHandler struct {
	BaseHandler
	service    services.LeetCodeService
	limiter    *ratelimit.Limiter
	cronSecret string
}

func NewLeetCodeHandler(service services.LeetCodeService, limiter *ratelimit.Limiter, cronSecret string, logger utils.Logger) *LeetCodeHandler {
	return &LeetCodeHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
		limiter:     limiter,
		cronSecret:  cronSecret,
	}
}

// SyncProfile links the caller to a LeetCode profile and refreshes their
// stats immediately. Rate limited per user.
// @Router /leetcode/sync [post]
func (h *LeetCodeHandler) SyncProfile(c *gin.Context) {
	h.LogRequest(c, "Syncing leetcode profile")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	if !h.limiter.Allow(c.Request.Context(), userID, ratelimit.RuleSyncTrigger) {
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Message: fmt.Sprintf("Sync limit reached, try again within %s", ratelimit.RuleSyncTrigger.Window),
		})
		return
	}

	var body struct {
		ProfileURL string `json:"profile_url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	profile, err := h.service.SyncProfile(c.Request.Context(), userID, body.ProfileURL)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetStats returns the caller's synced stats
// @Router /leetcode/stats [get]
func (h *LeetCodeHandler) GetStats(c *gin.Context) {
	h.LogRequest(c, "Getting leetcode stats")

	userID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	profile, err := h.service.GetStats(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Leaderboard ranks students by total solved
// @Param limit query int false "Row count (default 50, max 200)"
// @Param batch_start_year query int false "Restrict to one batch"
// @Param class_section query string false "Restrict to one section"
// @Router /leetcode/leaderboard [get]
func (h *LeetCodeHandler) Leaderboard(c *gin.Context) {
	h.LogRequest(c, "Getting leaderboard")

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.service.Leaderboard(c.Request.Context(), parseScope(c), limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// ExportStats downloads the synced stats as an xlsx workbook
// @Router /leetcode/export [get]
func (h *LeetCodeHandler) ExportStats(c *gin.Context) {
	h.LogRequest(c, "Exporting leetcode stats")

	data, err := h.service.ExportStats(c.Request.Context(), parseScope(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("leetcode-stats-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// TriggerBatchSync runs a full sync. Called by the scheduler with the shared
// secret, or by a super admin session.
// @Router /leetcode/sync/batch [post]
func (h *LeetCodeHandler) TriggerBatchSync(c *gin.Context) {
	h.LogRequest(c, "Triggering batch sync")

	result, err := h.service.SyncAll(c.Request.Context(), parseScope(c))
	if err != nil {
		if result != nil {
			// Partial run; report what completed alongside the error
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Message: "Sync aborted",
				Details: result,
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// BatchSyncAuth admits the scheduler by shared secret; everyone else goes
// through token auth and needs the super admin role.
func (h *LeetCodeHandler) BatchSyncAuth(auth *CasdoorAuthMiddleware) gin.HandlerFunc {
	tokenAuth := auth.AuthMiddleware()
	requireAdmin := auth.RequireRoleMiddleware(models.RoleSuperAdmin)

	return func(c *gin.Context) {
		if secret := c.GetHeader("X-Cron-Secret"); secret != "" {
			if h.cronSecret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(h.cronSecret)) == 1 {
				c.Next()
				return
			}
			c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied"})
			c.Abort()
			return
		}

		tokenAuth(c)
		if c.IsAborted() {
			return
		}
		requireAdmin(c)
	}
}

// parseScope reads the optional cohort filters from the query string
func parseScope(c *gin.Context) *models.CohortScope {
	scope := &models.CohortScope{ClassSection: c.Query("class_section")}
	if yearStr := c.Query("batch_start_year"); yearStr != "" {
		if year, err := strconv.Atoi(yearStr); err == nil {
			scope.BatchStartYear = year
		}
	}
	if scope.BatchStartYear == 0 && scope.ClassSection == "" {
		return nil
	}
	return scope
}

func (h *LeetCodeHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Profile not found"})
	default:
		utils.LoggerFromContext(c.Request.Context(), h.logger).Error("leetcode handler error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}
