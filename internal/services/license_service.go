// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/license-backend/internal/i18n"
	"github.com/javajoker/license-backend/internal/models"
	"github.com/javajoker/license-backend/internal/store"
	"github.com/javajoker/license-backend/internal/utils"
)

// LicenseService registers, authenticates and verifies license keys.
type LicenseService struct {
	store     store.LicenseKeyStore
	passwords *PasswordHasher
	now       func() time.Time
}

type RegisterRequest struct {
	Key      string `json:"key" validate:"required"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=6"`
	HWID     string `json:"hwid" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	HWID     string `json:"hwid" validate:"required"`
}

// LicenseResult is returned by successful register, login and verify calls.
type LicenseResult struct {
	LicenseKey *models.LicenseKey
	ExpiresAt  *time.Time
}

type Option func(*LicenseService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *LicenseService) { s.now = now }
}

func NewLicenseService(s store.LicenseKeyStore, passwords *PasswordHasher, opts ...Option) *LicenseService {
	svc := &LicenseService{
		store:     s,
		passwords: passwords,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *LicenseService) Register(ctx context.Context, req *RegisterRequest) (*LicenseResult, error) {
	if err := validateRequest(req, i18n.KeyRegisterFieldsRequired); err != nil {
		return nil, err
	}

	log := logrus.WithField("username", req.Username)
	log.Info("Registration attempt")

	// Check if username already exists
	if _, err := s.store.FindOne(ctx, store.Filter{Username: req.Username}); err == nil {
		return nil, newError(ErrorKindConflict, ReasonUsernameTaken, i18n.KeyRegisterUsernameTaken)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, internalError(i18n.KeyInternalError, err)
	}

	key, err := s.store.FindOne(ctx, store.Filter{KeyHash: normalizeKeyHash(req.Key)})
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrorKindNotFound, ReasonInvalidKey, i18n.KeyRegisterInvalidKey)
	}
	if err != nil {
		return nil, internalError(i18n.KeyInternalError, err)
	}

	now := s.now()
	switch {
	case !key.IsActive:
		return nil, newError(ErrorKindRejected, ReasonInactive, i18n.KeyRegisterKeyInactive).forKey(key.ID)
	case key.IsExpired(now):
		return nil, newError(ErrorKindRejected, ReasonExpired, i18n.KeyRegisterKeyExpired).forKey(key.ID)
	case key.IsRegistered:
		return nil, newError(ErrorKindRejected, ReasonAlreadyRegistered, i18n.KeyRegisterAlreadyRegistered).forKey(key.ID)
	}

	passwordHash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, hashError(err).forKey(key.ID)
	}

	// The is_registered condition makes a concurrent second registration
	// of the same key match nothing.
	updated, err := s.store.Update(ctx,
		store.Filter{ID: key.ID, Unregistered: true},
		store.Fields{
			models.ColumnUsername:     req.Username,
			models.ColumnPasswordHash: passwordHash,
			models.ColumnHWID:         req.HWID,
			models.ColumnIsRegistered: true,
			models.ColumnLastUsedAt:   now,
		})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, newError(ErrorKindConflict, ReasonUsernameTaken, i18n.KeyRegisterUsernameTaken).forKey(key.ID)
	}
	if err != nil {
		return nil, internalError(i18n.KeyRegisterFailed, err).forKey(key.ID)
	}
	if updated == 0 {
		return nil, newError(ErrorKindRejected, ReasonAlreadyRegistered, i18n.KeyRegisterAlreadyRegistered).forKey(key.ID)
	}

	username, hwid := req.Username, req.HWID
	key.Username = &username
	key.PasswordHash = &passwordHash
	key.HWID = &hwid
	key.IsRegistered = true
	key.LastUsedAt = &now

	log.WithField("license_key_id", key.ID).Info("User registered")
	return &LicenseResult{LicenseKey: key, ExpiresAt: key.ExpiresAt}, nil
}

func (s *LicenseService) Login(ctx context.Context, req *LoginRequest) (*LicenseResult, error) {
	if err := validateRequest(req, i18n.KeyLoginFieldsRequired); err != nil {
		return nil, err
	}

	log := logrus.WithField("username", req.Username)
	log.Info("Login attempt")

	// Unknown user and wrong password produce the same error
	key, err := s.store.FindOne(ctx, store.Filter{Username: req.Username})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, internalError(i18n.KeyInternalError, err)
	}
	if key == nil || key.PasswordHash == nil {
		s.passwords.CompareMissing(req.Password)
		return nil, newError(ErrorKindRejected, ReasonInvalidCredentials, i18n.KeyLoginInvalidCredentials)
	}
	if !s.passwords.Compare(*key.PasswordHash, req.Password) {
		return nil, newError(ErrorKindRejected, ReasonInvalidCredentials, i18n.KeyLoginInvalidCredentials)
	}

	now := s.now()
	switch {
	case !key.IsActive:
		return nil, newError(ErrorKindRejected, ReasonAccountInactive, i18n.KeyLoginAccountInactive).forKey(key.ID)
	case key.IsExpired(now):
		return nil, newError(ErrorKindRejected, ReasonLicenseExpired, i18n.KeyLoginLicenseExpired).forKey(key.ID)
	case key.BoundToOther(req.HWID):
		return nil, newError(ErrorKindRejected, ReasonHwidMismatch, i18n.KeyLoginHwidMismatch).forKey(key.ID)
	}

	// Binds the hardware id on first login. Matching only unbound or
	// identically bound records keeps two machines racing for the first
	// bind from both winning.
	updated, err := s.store.Update(ctx,
		store.Filter{ID: key.ID, HWIDFreeOr: req.HWID},
		store.Fields{
			models.ColumnLastUsedAt: now,
			models.ColumnHWID:       req.HWID,
		})
	switch {
	case err != nil:
		log.WithError(err).Warn("Failed to update last use after login")
	case updated == 0:
		log.WithField("license_key_id", key.ID).Warn("Hardware id bound by a concurrent login")
		return nil, newError(ErrorKindRejected, ReasonHwidMismatch, i18n.KeyLoginHwidMismatch).forKey(key.ID)
	default:
		hwid := req.HWID
		key.HWID = &hwid
		key.LastUsedAt = &now
	}

	log.WithField("license_key_id", key.ID).Info("Login success")
	return &LicenseResult{LicenseKey: key, ExpiresAt: key.ExpiresAt}, nil
}

var fieldMessages = map[string]struct {
	reason     string
	messageKey string
}{
	"username": {ReasonUsernameLength, i18n.KeyRegisterUsernameLength},
	"password": {ReasonPasswordLength, i18n.KeyRegisterPasswordLength},
}

// validateRequest reports the first failing rule of req. Missing fields
// are reported together under requiredKey.
func validateRequest(req interface{}, requiredKey string) *Error {
	first := utils.FirstValidationError(utils.GetValidationErrors(utils.ValidateStruct(req)))
	if first == nil {
		return nil
	}

	reason := ReasonFieldsRequired
	if requiredKey == i18n.KeyVerifyKeyRequired {
		reason = ReasonKeyRequired
	}
	if first.Tag == "required" {
		return newError(ErrorKindValidation, reason, requiredKey)
	}
	if m, ok := fieldMessages[first.Field]; ok {
		return newError(ErrorKindValidation, m.reason, m.messageKey)
	}
	return newError(ErrorKindValidation, reason, requiredKey)
}

// normalizeKeyHash accepts either the plaintext key or its hex digest.
func normalizeKeyHash(key string) string {
	if utils.IsSHA256Hex(key) {
		return strings.ToLower(key)
	}
	return utils.HashString(key)
}
