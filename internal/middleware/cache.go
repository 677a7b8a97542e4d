package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks responses as privately cacheable, used for rendered certificates
// whose filenames are unique and never rewritten.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d, immutable", maxAgeSeconds))
		c.Next()
	}
}
