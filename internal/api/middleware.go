package api

import (
	"errors"
	"log"
	"net/http"

	"muscledynamics/workout-planner/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Constants for context keys and headers
const (
	ContextRequestIDKey = "requestID"
	HeaderRequestID     = "X-Request-ID"
)

// RequestIDMiddleware tags every request with an id, reusing the caller's
// X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// CORSMiddleware allows the browser client served from origin to call the API.
// An empty origin disables CORS headers; "*" allows any origin.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin == "" {
			c.Next()
			return
		}
		reqOrigin := c.GetHeader("Origin")
		if origin == "*" || reqOrigin == origin {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, "+HeaderRequestID)
			c.Header("Access-Control-Expose-Headers", HeaderRequestID)
			c.Header("Vary", "Origin")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// abortWithServiceError maps a domain error kind to a status code.
func abortWithServiceError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		abortWithError(c, http.StatusBadRequest, domain.Message(err))
	case errors.Is(err, domain.ErrNotFound):
		abortWithError(c, http.StatusNotFound, domain.Message(err))
	default:
		log.Printf("ERROR: [%s] Failed to %s: %v", requestIDFromContext(c), action, err)
		abortWithError(c, http.StatusInternalServerError, "Failed to "+action+".")
	}
}

// Helper function to get the request id from context (used by handlers)
func requestIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(ContextRequestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return "-"
}
