package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type castVoteRequest struct {
	Up *bool `json:"up" binding:"required"`
}

func (r *Router) castVote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	thingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": "validation", "message": "vote direction is required"},
		})
		return
	}
	if err := r.ledger.CastVote(c.Request.Context(), userID, thingID, *req.Up); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) retractVote(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	thingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.ledger.RetractVote(c.Request.Context(), userID, thingID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
