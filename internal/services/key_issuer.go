// internal/services/key_issuer.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/license-backend/internal/models"
	"github.com/javajoker/license-backend/internal/store"
	"github.com/javajoker/license-backend/internal/utils"
)

const issueAttempts = 3

// KeyFormat describes generated keys: PREFIX-XXXX-XXXX-XXXX by default.
type KeyFormat struct {
	Prefix        string
	Segments      int
	SegmentLength int
}

func DefaultKeyFormat() KeyFormat {
	return KeyFormat{Prefix: "FORTE", Segments: 3, SegmentLength: 4}
}

type KeyIssuer struct {
	store  store.LicenseKeyStore
	format KeyFormat
	now    func() time.Time
}

type IssueRequest struct {
	ExpiresAt *time.Time
	CreatedBy string
}

// IssuedKey carries the plaintext key. It is shown once and never stored.
type IssuedKey struct {
	Plaintext string
	Record    *models.LicenseKey
}

func NewKeyIssuer(s store.LicenseKeyStore, format KeyFormat) *KeyIssuer {
	return &KeyIssuer{
		store:  s,
		format: format,
		now:    time.Now,
	}
}

// Generate returns a new plaintext key.
func (k *KeyIssuer) Generate() (string, error) {
	parts := make([]string, 0, k.format.Segments+1)
	if k.format.Prefix != "" {
		parts = append(parts, k.format.Prefix)
	}
	for i := 0; i < k.format.Segments; i++ {
		segment, err := utils.GenerateRandomString(k.format.SegmentLength, utils.LicenseKeyCharset)
		if err != nil {
			return "", fmt.Errorf("failed to generate key segment: %w", err)
		}
		parts = append(parts, segment)
	}
	return strings.Join(parts, "-"), nil
}

func (k *KeyIssuer) Hash(plaintext string) string {
	return utils.HashString(plaintext)
}

func (k *KeyIssuer) Verify(plaintext, digest string) bool {
	return utils.CompareHash(plaintext, digest)
}

// Issue generates a key and stores its hash as an active, unregistered record.
func (k *KeyIssuer) Issue(ctx context.Context, req IssueRequest) (*IssuedKey, error) {
	if k.store == nil {
		return nil, errors.New("key issuer has no store")
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(k.now()) {
		return nil, errors.New("expiry must be in the future")
	}

	for attempt := 1; attempt <= issueAttempts; attempt++ {
		plaintext, err := k.Generate()
		if err != nil {
			return nil, err
		}

		record := &models.LicenseKey{
			ID:        uuid.New(),
			KeyHash:   k.Hash(plaintext),
			IsActive:  true,
			CreatedAt: k.now(),
			ExpiresAt: req.ExpiresAt,
		}
		if req.CreatedBy != "" {
			createdBy := req.CreatedBy
			record.CreatedBy = &createdBy
		}

		err = k.store.Insert(ctx, record)
		if errors.Is(err, store.ErrDuplicate) {
			logrus.WithField("attempt", attempt).Warn("Generated license key collided, retrying")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to store license key: %w", err)
		}

		logrus.WithFields(logrus.Fields{
			"license_key_id": record.ID,
			"created_by":     req.CreatedBy,
		}).Info("License key issued")

		if err := k.store.RecordEvent(ctx, &models.LicenseEvent{
			LicenseKeyID: &record.ID,
			Action:       models.EventActionIssue,
			Outcome:      models.EventOutcomeSuccess,
			Details:      models.JSONB{"created_by": req.CreatedBy},
			CreatedAt:    record.CreatedAt,
		}); err != nil {
			logrus.WithError(err).Warn("Failed to record issue event")
		}

		return &IssuedKey{Plaintext: plaintext, Record: record}, nil
	}

	return nil, fmt.Errorf("failed to issue a unique license key after %d attempts", issueAttempts)
}
