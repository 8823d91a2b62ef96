package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderXSessionID = "X-Session-ID"
	ContextSessionID = "session_id"
)

// Session identifies the caller's filter session. A missing header gets a
// fresh id, echoed back so the client can reuse it.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetHeader(HeaderXSessionID)
		if sid == "" {
			sid = uuid.New().String()
		}

		c.Set(ContextSessionID, sid)
		c.Header(HeaderXSessionID, sid)
		c.Next()
	}
}

// SessionID returns the id set by Session, falling back to the raw header.
func SessionID(c *gin.Context) string {
	if sid := c.GetString(ContextSessionID); sid != "" {
		return sid
	}
	return c.GetHeader(HeaderXSessionID)
}
