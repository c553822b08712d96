// internal/utils/response.go
package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/license-backend/internal/i18n"
	"github.com/javajoker/license-backend/internal/models"
)

// Context keys set by middleware and read by handlers.
const (
	ContextKeyLang         = "lang"
	ContextKeyResponseFlag = "response_flag"
	ContextKeyLicenseEvent = "license_event"
)

// Response flags. /verify answers with "valid", every other route with "success".
const (
	FlagSuccess = "success"
	FlagValid   = "valid"
)

// ResultResponse writes a successful license outcome. expires_at is always
// present and null for keys that never expire.
func ResultResponse(c *gin.Context, expiresAt *time.Time, message string) {
	c.JSON(http.StatusOK, gin.H{
		GetResponseFlag(c): true,
		"expires_at":       expiresAt,
		"message":          message,
	})
}

// FailureResponse writes {<flag>: false, error: message}.
func FailureResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		GetResponseFlag(c): false,
		"error":            message,
	})
}

// RejectedResponse reports a domain rejection. These are not transport
// failures and always use 200.
func RejectedResponse(c *gin.Context, message string) {
	FailureResponse(c, http.StatusOK, message)
}

func BadRequestResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyInvalidBody)
	}
	FailureResponse(c, http.StatusBadRequest, message)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = i18n.T(GetLangFromContext(c), i18n.KeyInternalError)
	}
	FailureResponse(c, http.StatusInternalServerError, message)
}

func ServiceUnavailableResponse(c *gin.Context) {
	FailureResponse(c, http.StatusServiceUnavailable, i18n.T(GetLangFromContext(c), i18n.KeyServiceNotReady))
}

func TooManyRequestsResponse(c *gin.Context) {
	FailureResponse(c, http.StatusTooManyRequests, i18n.T(GetLangFromContext(c), i18n.KeyRateLimited))
}

func MethodNotAllowedResponse(c *gin.Context) {
	FailureResponse(c, http.StatusMethodNotAllowed, i18n.T(GetLangFromContext(c), i18n.KeyMethodNotAllowed))
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get(ContextKeyLang); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func SetResponseFlag(c *gin.Context, flag string) {
	c.Set(ContextKeyResponseFlag, flag)
}

func GetResponseFlag(c *gin.Context) string {
	if flag := c.GetString(ContextKeyResponseFlag); flag != "" {
		return flag
	}
	return FlagSuccess
}

// SetLicenseEvent hands the audit event of a request to the audit middleware.
func SetLicenseEvent(c *gin.Context, event *models.LicenseEvent) {
	c.Set(ContextKeyLicenseEvent, event)
}

func GetLicenseEvent(c *gin.Context) (*models.LicenseEvent, bool) {
	if event, exists := c.Get(ContextKeyLicenseEvent); exists {
		if e, ok := event.(*models.LicenseEvent); ok {
			return e, true
		}
	}
	return nil, false
}

// ClientID identifies the caller for rate limiting and auditing.
func ClientID(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}
