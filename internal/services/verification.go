// internal/services/verification.go
package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/license-backend/internal/i18n"
	"github.com/javajoker/license-backend/internal/models"
	"github.com/javajoker/license-backend/internal/store"
)

// VerifyRequest carries the key digest. Callers hash the key locally; the
// value is matched against stored digests as sent.
type VerifyRequest struct {
	Key string `json:"key" validate:"required"`
}

// Verify checks a key hash without binding it to anything. Rate limiting
// happens before this is called.
func (s *LicenseService) Verify(ctx context.Context, req *VerifyRequest) (*LicenseResult, error) {
	if err := validateRequest(req, i18n.KeyVerifyKeyRequired); err != nil {
		return nil, err
	}

	key, err := s.store.FindOne(ctx, store.Filter{KeyHash: req.Key})
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrorKindNotFound, ReasonNotFound, i18n.KeyVerifyNotFound)
	}
	if err != nil {
		return nil, internalError(i18n.KeyInternalError, err)
	}

	now := s.now()
	switch {
	case !key.IsActive:
		return nil, newError(ErrorKindRejected, ReasonInactive, i18n.KeyVerifyInactive).forKey(key.ID)
	case key.IsExpired(now):
		return nil, newError(ErrorKindRejected, ReasonExpired, i18n.KeyVerifyExpired).forKey(key.ID)
	}

	if _, err := s.store.Update(ctx,
		store.Filter{ID: key.ID},
		store.Fields{models.ColumnLastUsedAt: now},
	); err != nil {
		logrus.WithError(err).WithField("license_key_id", key.ID).Warn("Failed to update last use after verify")
	} else {
		key.LastUsedAt = &now
	}

	return &LicenseResult{LicenseKey: key, ExpiresAt: key.ExpiresAt}, nil
}
