package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/threadmill/threadmill/internal/db"
	"github.com/threadmill/threadmill/internal/engine"
	"github.com/threadmill/threadmill/pkg/logging"
)

// Router sets up API routes
type Router struct {
	database   *db.DB
	graph      *engine.Graph
	ledger     *engine.VoteLedger
	content    *engine.ContentStore
	composer   *engine.Composer
	dispatcher *engine.Dispatcher
	messenger  *engine.Messenger
	logger     *zap.Logger
}

// NewRouter creates a new API router over the engine services
func NewRouter(
	database *db.DB,
	graph *engine.Graph,
	ledger *engine.VoteLedger,
	content *engine.ContentStore,
	composer *engine.Composer,
	dispatcher *engine.Dispatcher,
	messenger *engine.Messenger,
) *Router {
	return &Router{
		database:   database,
		graph:      graph,
		ledger:     ledger,
		content:    content,
		composer:   composer,
		dispatcher: dispatcher,
		messenger:  messenger,
		logger:     logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(g *gin.Engine) {
	// Health check endpoints
	g.GET("/health", r.healthHandler)
	g.GET("/.well-known/healthcheck.json", r.healthHandler)

	v1 := g.Group("/v1", tracing(), identity())

	// Relationship graph
	v1.PUT("/follows/:id", r.follow)
	v1.DELETE("/follows/:id", r.unfollow)
	v1.PUT("/blocks/:id", r.block)
	v1.DELETE("/blocks/:id", r.unblock)
	v1.PUT("/subreddits/:id/membership", r.joinSubreddit)
	v1.DELETE("/subreddits/:id/membership", r.leaveSubreddit)

	// Content
	v1.POST("/posts", r.createPost)
	v1.GET("/things/:id", r.getThing)
	v1.PATCH("/things/:id", r.updateThing)
	v1.DELETE("/things/:id", r.deleteThing)
	v1.POST("/things/:id/comments", r.createComment)
	v1.PUT("/things/:id/hide", r.hideThing)
	v1.DELETE("/things/:id/hide", r.unhideThing)
	v1.PUT("/things/:id/save", r.saveThing)
	v1.DELETE("/things/:id/save", r.unsaveThing)
	v1.PUT("/things/:id/mute", r.muteThread)
	v1.DELETE("/things/:id/mute", r.unmuteThread)

	// Votes
	v1.PUT("/things/:id/vote", r.castVote)
	v1.DELETE("/things/:id/vote", r.retractVote)

	// Feeds
	v1.GET("/feed", r.feed)

	// Notifications
	v1.GET("/notifications", r.listNotifications)
	v1.GET("/notifications/unread_count", r.unreadNotifications)
	v1.PUT("/notifications/:id/read", r.markNotificationRead)
	v1.PUT("/notifications/read_all", r.markAllNotificationsRead)
	v1.PUT("/notifications/:id/hide", r.hideNotification)

	// Messages
	v1.POST("/messages", r.sendMessage)
	v1.POST("/messages/:id/replies", r.replyMessage)
	v1.GET("/messages", r.inbox)
	v1.GET("/messages/unread_count", r.unreadMessages)
	v1.PUT("/messages/:id/read", r.markMessageRead)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	if err := r.database.Health(c.Request.Context()); err != nil {
		c.JSON(503, gin.H{"status": "FAIL", "service": "threadmill-api"})
		return
	}
	c.JSON(200, gin.H{
		"status":  "OK",
		"service": "threadmill-api",
	})
}
