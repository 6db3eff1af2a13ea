package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/threadmill/threadmill/pkg/telemetry"
)

const userIDKey = "user_id"

// tracing opens a span per request named after the matched route
func tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.FullPath()
		if name == "" {
			name = c.Request.URL.Path
		}
		ctx, span := telemetry.StartSpan(c.Request.Context(), c.Request.Method+" "+name)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

// identity reads the authenticated user from the X-User-Id header, set by
// the auth gateway in front of this service. The value is trusted as-is.
func identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-Id")
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{"kind": "validation", "message": "malformed X-User-Id header"},
			})
			return
		}
		c.Set(userIDKey, id)
		c.Next()
	}
}

// currentUser returns the authenticated user id, or 0 when anonymous
func currentUser(c *gin.Context) int64 {
	if v, ok := c.Get(userIDKey); ok {
		return v.(int64)
	}
	return 0
}

// requireUser returns the authenticated user id, writing a 401 when the
// request is anonymous.
func requireUser(c *gin.Context) (int64, bool) {
	id := currentUser(c)
	if id == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"kind": "authorization", "message": "authentication required"},
		})
		return 0, false
	}
	return id, true
}

// pathID parses a positive int64 path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"kind": "validation", "message": "malformed " + name + " parameter"},
		})
		return 0, false
	}
	return id, true
}
