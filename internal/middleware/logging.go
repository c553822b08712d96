// internal/middleware/logging.go
package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/license-backend/internal/store"
	"github.com/javajoker/license-backend/internal/utils"
)

const auditWriteTimeout = 5 * time.Second

// AuditLogMiddleware records the license event a handler attached to the
// request. The event is counted in metrics and, when persist is set,
// written to the event table after the response has been sent.
func AuditLogMiddleware(s store.LicenseKeyStore, metrics *Metrics, persist bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		event, ok := utils.GetLicenseEvent(c)
		if !ok {
			return
		}
		event.IPAddress = utils.ClientID(c)
		event.UserAgent = c.Request.UserAgent()
		if event.CreatedAt.IsZero() {
			event.CreatedAt = time.Now()
		}

		metrics.ObserveOutcome(string(event.Action), string(event.Outcome), event.Reason)

		if !persist || s == nil {
			return
		}

		// Save audit log asynchronously
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
			defer cancel()
			if err := s.RecordEvent(ctx, event); err != nil {
				logrus.WithError(err).WithField("action", event.Action).Error("Failed to create audit log")
			}
		}()
	}
}

// RequestLogger logs one structured line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"duration":   duration.Milliseconds(),
			"ip":         utils.ClientID(c),
			"user_agent": c.Request.UserAgent(),
		}
		if event, ok := utils.GetLicenseEvent(c); ok {
			fields["action"] = event.Action
			fields["outcome"] = event.Outcome
			if event.Reason != "" {
				fields["reason"] = event.Reason
			}
		}

		entry := logrus.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request processed")
		case status >= 400:
			entry.Warn("Request processed")
		default:
			entry.Info("Request processed")
		}
	}
}
