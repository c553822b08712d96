// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/license-backend/internal/i18n"
	"github.com/javajoker/license-backend/internal/models"
	"github.com/javajoker/license-backend/internal/services"
)

type AuthHandler struct {
	licenseService *services.LicenseService
}

func NewAuthHandler(licenseService *services.LicenseService) *AuthHandler {
	return &AuthHandler{
		licenseService: licenseService,
	}
}

// POST /register
func (h *AuthHandler) Register(c *gin.Context) {
	event := &models.LicenseEvent{Action: models.EventActionRegister}

	var req services.RegisterRequest
	if !bindJSON(c, event, &req, i18n.KeyRegisterFieldsRequired) {
		return
	}
	event.Username = req.Username
	event.HWID = req.HWID

	result, err := h.licenseService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, event, err)
		return
	}

	respondResult(c, event, result, i18n.KeyRegisterSuccess)
}

// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	event := &models.LicenseEvent{Action: models.EventActionLogin}

	var req services.LoginRequest
	if !bindJSON(c, event, &req, i18n.KeyLoginFieldsRequired) {
		return
	}
	event.Username = req.Username
	event.HWID = req.HWID

	result, err := h.licenseService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, event, err)
		return
	}

	respondResult(c, event, result, i18n.KeyLoginSuccess)
}
