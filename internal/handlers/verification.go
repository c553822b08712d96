// internal/handlers/verification.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/license-backend/internal/i18n"
	"github.com/javajoker/license-backend/internal/models"
	"github.com/javajoker/license-backend/internal/services"
)

type VerificationHandler struct {
	licenseService *services.LicenseService
}

func NewVerificationHandler(licenseService *services.LicenseService) *VerificationHandler {
	return &VerificationHandler{
		licenseService: licenseService,
	}
}

// POST /verify
func (h *VerificationHandler) Verify(c *gin.Context) {
	event := &models.LicenseEvent{Action: models.EventActionVerify}

	var req services.VerifyRequest
	if !bindJSON(c, event, &req, i18n.KeyVerifyKeyRequired) {
		return
	}

	result, err := h.licenseService.Verify(c.Request.Context(), &req)
	if err != nil {
		respondError(c, event, err)
		return
	}

	respondResult(c, event, result, i18n.KeyVerifyValid)
}
