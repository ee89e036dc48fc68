package notification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ezm_trade_backend/internal/common"
	"ezm_trade_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TriggerRunner runs a full trigger pass on demand.
type TriggerRunner interface {
	RunAll(ctx context.Context) (TriggerStats, error)
}

// Handler struct holds dependencies for notification handlers.
type Handler struct {
	service  Service
	triggers TriggerRunner
	cfg      *config.Config
	logger   *zap.Logger
}

// NewHandler creates a new notification handler.
func NewHandler(service Service, triggers TriggerRunner, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		triggers: triggers,
		cfg:      cfg,
		logger:   logger.Named("NotificationHandler"),
	}
}

// RegisterRoutes sets up the routes for notification operations.
// triggerLimitMW throttles the on-demand trigger check.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, announceRoleMW, triggerLimitMW gin.HandlerFunc) {
	group := router.Group("/notifications")
	group.Use(authMW)
	{
		group.GET("", h.getUserNotifications)
		group.GET("/count", h.getUnreadCount)
		group.POST("/mark-all-read", h.markAllAsRead)
		group.POST("/trigger-check", triggerLimitMW, h.triggerCheck)
		group.POST("/:id/mark-read", h.markAsRead)
		group.POST("/:id/dismiss", h.dismiss)
		group.POST("", announceRoleMW, h.createAnnouncement)
	}
}

func recipientFrom(c *gin.Context) Recipient {
	return Recipient{ID: common.GetUserIDFromContext(c), Role: common.GetUserRoleFromContext(c)}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// respondFailure writes the {success:false, error} envelope. Internal errors are logged
// and reported generically.
func (h *Handler) respondFailure(c *gin.Context, err error, extra gin.H) {
	status := http.StatusInternalServerError
	message := "An unexpected error occurred."
	if apiErr, ok := common.IsAPIError(err); ok {
		status = apiErr.StatusCode
		message = apiErr.Message
		if details, ok := apiErr.Details.(string); ok && details != "" {
			message = details
		}
	} else {
		h.logger.Error("Notification request failed", zap.String("path", c.FullPath()), zap.Error(err))
		switch {
		case errors.Is(err, ErrPartialFailure):
			message = "Some notifications could not be marked as read."
		case errors.Is(err, ErrCreationFailure):
			message = "Notification could not be created."
		}
	}

	body := gin.H{"success": false, "error": message}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *Handler) getUserNotifications(c *gin.Context) {
	r := recipientFrom(c)
	includeRead := common.GetBoolQuery(c, "include_read", false)
	limit := common.GetLimitParam(c, h.cfg.NotificationDefaultLimit, h.cfg.NotificationMaxLimit)

	items, err := h.service.GetUserNotifications(c.Request.Context(), r, includeRead, limit)
	if err != nil {
		h.respondFailure(c, err, nil)
		return
	}
	unread, err := h.service.GetUnreadCount(c.Request.Context(), r)
	if err != nil {
		h.respondFailure(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"notifications": ToUserNotificationResponses(items),
		"unread_count":  unread,
		"timestamp":     timestamp(),
	})
}

func (h *Handler) getUnreadCount(c *gin.Context) {
	unread, err := h.service.GetUnreadCount(c.Request.Context(), recipientFrom(c))
	if err != nil {
		h.respondFailure(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"unread_count": unread,
		"timestamp":    timestamp(),
	})
}

func (h *Handler) markAsRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondFailure(c, common.ErrBadRequest.WithDetails("Invalid notification ID format."), nil)
		return
	}
	if err := h.service.MarkAsRead(c.Request.Context(), recipientFrom(c), id); err != nil {
		h.respondFailure(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}

func (h *Handler) dismiss(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.respondFailure(c, common.ErrBadRequest.WithDetails("Invalid notification ID format."), nil)
		return
	}
	if err := h.service.Dismiss(c.Request.Context(), recipientFrom(c), id); err != nil {
		h.respondFailure(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification dismissed"})
}

func (h *Handler) markAllAsRead(c *gin.Context) {
	result, err := h.service.MarkAllAsRead(c.Request.Context(), recipientFrom(c))
	if err != nil {
		h.respondFailure(c, err, gin.H{"marked": result.Marked, "failed": result.Failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%d notifications marked as read", result.Marked),
		"marked":  result.Marked,
	})
}

func (h *Handler) triggerCheck(c *gin.Context) {
	if !common.GetUserRoleFromContext(c).IsPrivileged() {
		h.respondFailure(c, common.ErrForbidden.WithDetails("Only admins and head managers can run notification checks."), nil)
		return
	}

	stats, err := h.triggers.RunAll(c.Request.Context())
	if err != nil {
		h.logger.Warn("On-demand trigger check had failures", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Some notification checks failed.",
			"stats":   stats,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (h *Handler) createAnnouncement(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondFailure(c, common.BindingError(err), nil)
		return
	}

	input := CreateNotificationInput{
		Type:         NotificationType(req.NotificationType),
		Title:        req.Title,
		Message:      req.Message,
		TargetRoles:  req.TargetRoles,
		TargetUsers:  req.TargetUsers,
		Priority:     Priority(req.Priority),
		ActionURL:    req.ActionURL,
		ActionText:   req.ActionText,
		ExpiresHours: req.ExpiresHours,
	}
	if input.Type == "" {
		input.Type = SystemAnnouncement
	}
	if len(input.TargetRoles) == 0 && len(input.TargetUsers) == 0 {
		input.TargetRoles = common.AllRoles
	}

	n, err := h.service.CreateNotification(c.Request.Context(), input)
	if err != nil {
		h.respondFailure(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "notification": ToNotificationResponse(n)})
}
