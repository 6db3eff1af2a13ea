package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threadmill/threadmill/internal/models"
)

// notificationView is the wire shape of a notification
type notificationView struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	ActorID   int64  `json:"actor_id"`
	ThingID   int64  `json:"thing_id,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
	Body      string `json:"body"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationView(n *models.Notification) notificationView {
	view := notificationView{
		ID:        n.ID,
		Type:      models.NotifyTypeName(n.Type),
		ActorID:   n.ActorID,
		Body:      n.Body,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if n.ThingID.Valid {
		view.ThingID = n.ThingID.Int64
	}
	if n.MessageID.Valid {
		view.MessageID = n.MessageID.Int64
	}
	return view
}

func (r *Router) listNotifications(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	lastID := queryID(c, "last_id")
	limit := queryInt(c, "limit")

	notifications, err := r.dispatcher.List(c.Request.Context(), userID, lastID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, toNotificationView(n))
	}
	c.JSON(http.StatusOK, gin.H{"notifications": views})
}

func (r *Router) unreadNotifications(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	count, err := r.dispatcher.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (r *Router) markNotificationRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	notifID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.dispatcher.MarkRead(c.Request.Context(), userID, notifID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) markAllNotificationsRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := r.dispatcher.MarkAllRead(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) hideNotification(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	notifID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.dispatcher.Hide(c.Request.Context(), userID, notifID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
