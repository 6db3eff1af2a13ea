package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	To      string `json:"to" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body" binding:"required"`
}

type replyMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

func (r *Router) sendMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": "validation", "message": err.Error()},
		})
		return
	}

	msg, err := r.messenger.Send(c.Request.Context(), userID, req.To, req.Subject, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (r *Router) replyMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req replyMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": "validation", "message": err.Error()},
		})
		return
	}

	msg, err := r.messenger.Reply(c.Request.Context(), userID, parentID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (r *Router) inbox(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	messages, err := r.messenger.Inbox(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (r *Router) unreadMessages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	count, err := r.messenger.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (r *Router) markMessageRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.messenger.MarkRead(c.Request.Context(), userID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
