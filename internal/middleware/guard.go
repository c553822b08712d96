// internal/middleware/guard.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/license-backend/internal/store"
	"github.com/javajoker/license-backend/internal/utils"
)

// ResponseFlag names the boolean field of every body written on the route.
func ResponseFlag(flag string) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SetResponseFlag(c, flag)
		c.Next()
	}
}

// RequireStore answers 503 while the server runs without a store.
func RequireStore(s store.LicenseKeyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s == nil {
			utils.ServiceUnavailableResponse(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Recovery turns a panic into a JSON 500 body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logrus.WithFields(logrus.Fields{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		}).Error("Recovered from panic")

		if c.Writer.Written() {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		utils.InternalErrorResponse(c, "")
		c.Abort()
	})
}
