package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threadmill/threadmill/internal/engine"
)

type createPostRequest struct {
	SubredditID int64    `json:"subreddit_id" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Body        string   `json:"body"`
	Images      []string `json:"images"`
	FlairID     *int64   `json:"flair_id"`
	IsNSFW      bool     `json:"is_nsfw"`
	IsSpoiler   bool     `json:"is_spoiler"`
}

type createCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type patchThingRequest struct {
	Body      *string `json:"body"`
	Title     *string `json:"title"`
	FlairID   *int64  `json:"flair_id"`
	IsNSFW    *bool   `json:"is_nsfw"`
	IsSpoiler *bool   `json:"is_spoiler"`
	IsLocked  *bool   `json:"is_locked"`
	IsVisited *bool   `json:"is_visited"`
}

func (r *Router) createPost(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": "validation", "message": err.Error()},
		})
		return
	}

	post, err := r.content.CreatePost(c.Request.Context(), engine.PostInput{
		AuthorID:    userID,
		SubredditID: req.SubredditID,
		Title:       req.Title,
		Body:        req.Body,
		Images:      req.Images,
		FlairID:     req.FlairID,
		IsNSFW:      req.IsNSFW,
		IsSpoiler:   req.IsSpoiler,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (r *Router) createComment(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	parentID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": "validation", "message": err.Error()},
		})
		return
	}

	comment, err := r.content.CreateComment(c.Request.Context(), userID, parentID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (r *Router) getThing(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	thing, err := r.content.GetThing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thing)
}

func (r *Router) updateThing(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req patchThingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": "validation", "message": err.Error()},
		})
		return
	}

	thing, err := r.content.UpdateThing(c.Request.Context(), id, engine.ThingPatch{
		Body:      req.Body,
		Title:     req.Title,
		FlairID:   req.FlairID,
		IsNSFW:    req.IsNSFW,
		IsSpoiler: req.IsSpoiler,
		IsLocked:  req.IsLocked,
		IsVisited: req.IsVisited,
	}, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thing)
}

func (r *Router) deleteThing(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := r.content.SoftDelete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// markerHandler adapts the per-user marker operations, which all share
// the (user, thing) signature.
func (r *Router) markerHandler(op func(c *gin.Context, userID, thingID int64) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}
		thingID, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := op(c, userID, thingID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (r *Router) hideThing(c *gin.Context) {
	r.markerHandler(func(c *gin.Context, userID, thingID int64) error {
		return r.content.Hide(c.Request.Context(), userID, thingID)
	})(c)
}

func (r *Router) unhideThing(c *gin.Context) {
	r.markerHandler(func(c *gin.Context, userID, thingID int64) error {
		return r.content.Unhide(c.Request.Context(), userID, thingID)
	})(c)
}

func (r *Router) saveThing(c *gin.Context) {
	r.markerHandler(func(c *gin.Context, userID, thingID int64) error {
		return r.content.Save(c.Request.Context(), userID, thingID)
	})(c)
}

func (r *Router) unsaveThing(c *gin.Context) {
	r.markerHandler(func(c *gin.Context, userID, thingID int64) error {
		return r.content.Unsave(c.Request.Context(), userID, thingID)
	})(c)
}

func (r *Router) muteThread(c *gin.Context) {
	r.markerHandler(func(c *gin.Context, userID, thingID int64) error {
		return r.content.MuteThread(c.Request.Context(), userID, thingID)
	})(c)
}

func (r *Router) unmuteThread(c *gin.Context) {
	r.markerHandler(func(c *gin.Context, userID, thingID int64) error {
		return r.content.UnmuteThread(c.Request.Context(), userID, thingID)
	})(c)
}
