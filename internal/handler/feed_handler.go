package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"projecthub/internal/apiclient"
	"projecthub/internal/service"
)

// FeedHandler 通知与动态
type FeedHandler struct {
	notifications *service.NotificationService
	activities    *service.ActivityService
	logger        *zap.Logger
}

func NewFeedHandler(notifications *service.NotificationService, activities *service.ActivityService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{notifications: notifications, activities: activities, logger: logger}
}

// Notifications handles GET /api/notifications
func (h *FeedHandler) Notifications(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	items, err := h.notifications.List(c.Request.Context(), sess)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "List notifications", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *FeedHandler) UnreadCount(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), sess)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "Get unread count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkRead handles POST /api/notifications/:notificationID/mark-as-read
func (h *FeedHandler) MarkRead(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "notificationID")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), sess, id); err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("notification_id", id)), "Mark notification read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// MarkAllRead handles POST /api/notifications/mark-all-as-read
func (h *FeedHandler) MarkAllRead(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkAllRead(c.Request.Context(), sess); err != nil {
		respondError(c, requestLogger(c, h.logger, sess), "Mark all notifications read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all marked as read"})
}

// DeleteNotification handles DELETE /api/notifications/:notificationID
func (h *FeedHandler) DeleteNotification(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "notificationID")
	if !ok {
		return
	}
	if err := h.notifications.Delete(c.Request.Context(), sess, id); err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.Int("notification_id", id)), "Delete notification", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Activities handles GET /api/activities、/api/projects/:projectID/activities、
// /api/projects/:projectID/tasks/:taskID/activities
func (h *FeedHandler) Activities(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}

	var scope apiclient.ActivityScope
	if c.Param("taskID") != "" {
		id, ok := pathID(c, "taskID")
		if !ok {
			return
		}
		scope.TaskID = id
	} else if c.Param("projectID") != "" {
		id, ok := pathID(c, "projectID")
		if !ok {
			return
		}
		scope.ProjectID = id
	}

	items, err := h.activities.List(c.Request.Context(), sess, scope)
	if err != nil {
		respondError(c, requestLogger(c, h.logger, sess).With(zap.String("scope", scope.String())), "List activities", err)
		return
	}
	c.JSON(http.StatusOK, items)
}
