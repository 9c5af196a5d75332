package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/shared/id"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID attaches a request ID to the request context and response.
// A well-formed incoming ID (ULID or UUID) is reused so that client and
// server logs line up; anything else is replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := id.RequestID(c.GetHeader(RequestIDHeader))
		if !acceptable(rid.String()) {
			rid = id.NewRequestID()
		}

		c.Set(requestIDKey, rid)
		c.Request = c.Request.WithContext(id.WithRequest(c.Request.Context(), rid))
		c.Header(RequestIDHeader, rid.String())

		c.Next()
	}
}

// GetRequestID returns the request ID set by RequestID.
func GetRequestID(c *gin.Context) id.RequestID {
	if v, ok := c.Get(requestIDKey); ok {
		if rid, ok := v.(id.RequestID); ok {
			return rid
		}
	}
	return ""
}

func acceptable(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	if _, err := uuid.Parse(s); err == nil {
		return true
	}
	return id.IsValid(s)
}
