package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListNotifications 查询通知列表
// GET /api/notifications?unread=true&limit=50
func (h *Handler) ListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true" || c.Query("unread") == "1"
	limit := parseIntWithDefault(c.Query("limit"), 100)

	notifications, err := h.store.ListNotifications(unreadOnly, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	unread, err := h.store.CountUnreadNotifications()
	if err != nil {
		unread = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  notifications,
		"total":  len(notifications),
		"unread": unread,
	})
}

// MarkNotificationRead 标记单条通知已读
// POST /api/notifications/:id/read
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.store.MarkNotificationRead(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// MarkAllNotificationsRead 标记全部通知已读
// POST /api/notifications/read-all
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.store.MarkAllNotificationsRead(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
