package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/threadmill/threadmill/internal/engine"
)

// statusForKind maps engine error kinds to HTTP status codes
func statusForKind(kind engine.Kind) int {
	switch kind {
	case engine.KindValidation, engine.KindInvalidQuery, engine.KindSelfReference:
		return http.StatusBadRequest
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindDuplicateEdge:
		return http.StatusConflict
	case engine.KindBlockExists, engine.KindAuthorization:
		return http.StatusForbidden
	case engine.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders an engine error as a JSON error body
func respondError(c *gin.Context, err error) {
	var e *engine.Error
	if !errors.As(err, &e) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"kind": "internal", "message": "internal error"},
		})
		return
	}
	c.JSON(statusForKind(e.Kind), gin.H{
		"error": gin.H{"kind": e.Kind.String(), "message": e.Message},
	})
}
