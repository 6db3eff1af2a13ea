package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (r *Router) follow(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.graph.Follow(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) unfollow(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.graph.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) block(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.graph.Block(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) unblock(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.graph.Unblock(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) joinSubreddit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	subredditID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.graph.JoinSubreddit(c.Request.Context(), userID, subredditID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) leaveSubreddit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	subredditID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.graph.LeaveSubreddit(c.Request.Context(), userID, subredditID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
