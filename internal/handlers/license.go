// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/license-backend/internal/i18n"
	"github.com/javajoker/license-backend/internal/models"
	"github.com/javajoker/license-backend/internal/services"
	"github.com/javajoker/license-backend/internal/utils"
)

// respondResult writes a success body and marks the request's event.
func respondResult(c *gin.Context, event *models.LicenseEvent, result *services.LicenseResult, messageKey string) {
	event.Outcome = models.EventOutcomeSuccess
	if result.LicenseKey != nil {
		id := result.LicenseKey.ID
		event.LicenseKeyID = &id
	}
	utils.SetLicenseEvent(c, event)
	utils.ResultResponse(c, result.ExpiresAt, i18n.T(utils.GetLangFromContext(c), messageKey))
}

// respondError maps a service error to its status code. Domain rejections
// are answered with 200; only malformed input, unavailability and internal
// failures use other codes.
func respondError(c *gin.Context, event *models.LicenseEvent, err error) {
	svcErr, ok := services.AsError(err)
	if !ok {
		svcErr = &services.Error{
			Kind:       services.ErrorKindInternal,
			Reason:     services.ReasonStoreFailure,
			MessageKey: i18n.KeyInternalError,
			Err:        err,
		}
	}

	event.Reason = svcErr.Reason
	if svcErr.LicenseKeyID != nil {
		event.LicenseKeyID = svcErr.LicenseKeyID
	}
	utils.SetLicenseEvent(c, event)

	message := i18n.T(utils.GetLangFromContext(c), svcErr.MessageKey)
	switch svcErr.Kind {
	case services.ErrorKindValidation:
		event.Outcome = models.EventOutcomeInvalid
		utils.BadRequestResponse(c, message)
	case services.ErrorKindConflict, services.ErrorKindNotFound, services.ErrorKindRejected:
		event.Outcome = models.EventOutcomeRejected
		utils.RejectedResponse(c, message)
	case services.ErrorKindRateLimited:
		event.Outcome = models.EventOutcomeRejected
		utils.TooManyRequestsResponse(c)
	case services.ErrorKindUnavailable:
		event.Outcome = models.EventOutcomeError
		utils.ServiceUnavailableResponse(c)
	default:
		event.Outcome = models.EventOutcomeError
		logrus.WithError(svcErr).WithFields(logrus.Fields{
			"action": event.Action,
			"path":   c.Request.URL.Path,
		}).Error("License operation failed")
		utils.InternalErrorResponse(c, message)
	}
}

// bindJSON decodes the body. A malformed body is answered with 400 and
// recorded as invalid input.
func bindJSON(c *gin.Context, event *models.LicenseEvent, req interface{}, messageKey string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		event.Outcome = models.EventOutcomeInvalid
		event.Reason = "malformed_body"
		utils.SetLicenseEvent(c, event)
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), messageKey))
		return false
	}
	return true
}
