package middlewares

import (
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireContentType rejects write requests whose media type is not one of allowed.
// Requests without a body are let through.
func RequireContentType(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}

			mt, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || !slices.Contains(allowed, mt) {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": gin.H{
						"code":      "unsupported_media_type",
						"message":   "Content-Type must be one of " + strings.Join(allowed, ", "),
						"requestId": c.GetString(CtxRequestID),
					},
				})
				return
			}
		}
		c.Next()
	}
}
