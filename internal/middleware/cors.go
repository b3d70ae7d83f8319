package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS allows the checkout front-ends (kiosk and back office run on their own
// origins) to reach the API. Content-Disposition is exposed so browsers can
// pick up the filename on receipt PDF downloads.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
