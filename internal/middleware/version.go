package middleware

import "github.com/gin-gonic/gin"

const HeaderXAPIVersion = "X-API-Version"

// Version stamps responses with the API version they were served by.
func Version(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(HeaderXAPIVersion, version)
		c.Next()
	}
}
