package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/washwala/laundry-api/services"
)

// NotificationController serves the caller's in-app inbox
type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// List handles GET /api/v1/notifications?unread=true&limit=20
func (ctl *NotificationController) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	items, err := ctl.notifications.List(c.Request.Context(), actor, c.Query("unread") == "true", intQuery(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, items)
}

// MarkRead handles PATCH /api/v1/notifications/:id/read
func (ctl *NotificationController) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := ctl.notifications.MarkRead(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification marked as read",
	})
}
