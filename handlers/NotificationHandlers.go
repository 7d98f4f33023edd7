package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backend/models"
)

// ==================== NOTIFICATIONS ====================

// GetNotifications lists recent notifications
// @Summary List notifications
// @Description Get the most recent notifications, unread first
// @Tags Notifications
// @Produce json
// @Success 200 {object} models.NotificationListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/notifications [get]
func GetNotifications(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := db.QueryContext(c.Request.Context(), `
			SELECT id, message, status, action, created_at
			FROM notifications
			ORDER BY status = 'unread' DESC, created_at DESC
			LIMIT 50
		`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
			return
		}
		defer rows.Close()

		var notifications []models.Notification
		for rows.Next() {
			var n models.Notification
			var createdAt time.Time
			if err := rows.Scan(&n.ID, &n.Message, &n.Status, &n.Action, &createdAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan notification"})
				return
			}
			n.CreatedAt = createdAt.Format(time.RFC3339)
			notifications = append(notifications, n)
		}

		c.JSON(http.StatusOK, models.NotificationListResponse{
			Success: true,
			Message: "Success",
			Data:    notifications,
		})
	}
}

// MarkNotificationRead marks one notification as read
// @Summary Mark notification read
// @Description Mark a single notification as read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} models.MessageResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/notifications/{id}/read [put]
func MarkNotificationRead(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := db.ExecContext(c.Request.Context(), `
			UPDATE notifications SET status = 'read', updated_at = NOW()
			WHERE id = $1
		`, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		c.JSON(http.StatusOK, models.MessageResponse{
			Success: true,
			Message: "Notification marked as read",
		})
	}
}

// MarkAllNotificationsRead marks every notification as read
// @Summary Mark all notifications read
// @Description Mark all notifications as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} models.MessageResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/notifications/read-all [put]
func MarkAllNotificationsRead(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := db.ExecContext(c.Request.Context(), `
			UPDATE notifications SET status = 'read', updated_at = NOW()
			WHERE status = 'unread'
		`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
			return
		}
		c.JSON(http.StatusOK, models.MessageResponse{
			Success: true,
			Message: "All notifications marked as read",
		})
	}
}
