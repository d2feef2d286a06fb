package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsAllowHeaders  = "Authorization, Content-Type, " + HeaderRequestID
	corsExposeHeaders = HeaderRequestID
)

// CORS 跨域中间件
// allowOrigins为空时不输出任何CORS头；包含"*"时允许所有来源
func CORS(allowOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(allowOrigins) == 0 {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		allowed := ""
		for _, o := range allowOrigins {
			if o == "*" || o == origin {
				allowed = o
				break
			}
		}

		if allowed == "" {
			if origin != "" {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowed)
		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Header("Access-Control-Expose-Headers", corsExposeHeaders)
		if allowed != "*" {
			c.Header("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
