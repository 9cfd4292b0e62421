package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goodtune/snstimer/internal/notify"
)

// NotificationViews hands queued notifications to the extension.
type NotificationViews struct {
	queue *notify.Queue
}

// NewNotificationViews creates a new notification views instance.
func NewNotificationViews(queue *notify.Queue) *NotificationViews {
	return &NotificationViews{queue: queue}
}

// Drain returns and clears pending notifications.
func (v *NotificationViews) Drain(ctx *gin.Context) {
	pending := v.queue.Drain()
	ctx.JSON(http.StatusOK, gin.H{
		"notifications": pending,
		"count":         len(pending),
	})
}
