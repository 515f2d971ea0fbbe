package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estate/server/internal/models"
)

// GetNotificationFilters returns the current filters; no filters means
// every event is sent.
func (h *Handler) GetNotificationFilters(c *gin.Context) {
	filters := h.filters.Get()
	if filters == nil {
		filters = &models.TelegramFilters{EventTypes: []models.EventType{}}
	}
	c.JSON(http.StatusOK, filters)
}

func (h *Handler) UpdateNotificationFilters(c *gin.Context) {
	var req models.TelegramFilters
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	if err := h.filters.Update(req); err != nil {
		h.respondError(c, err, "Failed to update notification filters")
		return
	}

	h.requestLogger(c).WithField("event_types", req.EventTypes).Info("Notification filters updated")
	c.JSON(http.StatusOK, h.filters.Get())
}

// TestNotification sends a test message through the Telegram bot
func (h *Handler) TestNotification(c *gin.Context) {
	if h.telegramService == nil || !h.telegramService.IsEnabled() {
		c.JSON(http.StatusConflict, gin.H{"error": "Telegram notifications are disabled"})
		return
	}

	if err := h.telegramService.SendTestMessage(); err != nil {
		h.requestLogger(c).WithError(err).Error("Failed to send test notification")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Test notification sent successfully"})
}
