package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/threadmill/threadmill/internal/engine"
)

// feed composes a feed page from query parameters. Anonymous requests
// are allowed; requester-dependent filters on an anonymous request are
// rejected as invalid.
func (r *Router) feed(c *gin.Context) {
	req := engine.FeedRequest{
		RequesterID:    currentUser(c),
		ThingID:        queryID(c, "thing_id"),
		SubredditID:    queryID(c, "subreddit_id"),
		AuthorID:       queryID(c, "author_id"),
		SubscribedOnly: c.Query("subscribed") == "true",
		FollowedOnly:   c.Query("followed") == "true",
		ThingType:      c.Query("type"),
		SavedOnly:      c.Query("saved") == "true",
		Sort:           engine.SortMode(c.DefaultQuery("sort", "hot")),
		Page:           queryInt(c, "page"),
		Limit:          queryInt(c, "limit"),
	}
	if c.Query("hidden") == "true" {
		req.Hidden = engine.HiddenOnly
	}
	switch c.Query("voted") {
	case "up":
		req.VotedOnly = engine.VoteUp
	case "down":
		req.VotedOnly = engine.VoteDown
	}

	items, err := r.composer.Compose(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func queryID(c *gin.Context, name string) int64 {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func queryInt(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}
