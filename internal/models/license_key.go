// internal/models/license_key.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Column names shared by every store backend.
const (
	ColumnID           = "id"
	ColumnKeyHash      = "key_hash"
	ColumnIsActive     = "is_active"
	ColumnIsRegistered = "is_registered"
	ColumnUsername     = "username"
	ColumnPasswordHash = "password_hash"
	ColumnHWID         = "hwid"
	ColumnCreatedBy    = "created_by"
	ColumnCreatedAt    = "created_at"
	ColumnExpiresAt    = "expires_at"
	ColumnLastUsedAt   = "last_used_at"
)

// LicenseKey is a single issued key. The plaintext key is never stored.
type LicenseKey struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	KeyHash      string     `json:"key_hash" gorm:"size:64;uniqueIndex;not null"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	IsRegistered bool       `json:"is_registered" gorm:"not null;default:false"`
	Username     *string    `json:"username" gorm:"size:32;uniqueIndex"`
	PasswordHash *string    `json:"-" gorm:"size:255"`
	HWID         *string    `json:"hwid" gorm:"column:hwid;size:255"`
	CreatedBy    *string    `json:"created_by,omitempty" gorm:"size:255"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at" gorm:"index"`
	LastUsedAt   *time.Time `json:"last_used_at"`
}

func (LicenseKey) TableName() string {
	return "license_keys"
}

// IsExpired treats a key expiring exactly at now as expired.
func (k *LicenseKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}

// BoundToOther reports whether the key is locked to a machine other than
// hwid. An unbound key is never bound to another machine.
func (k *LicenseKey) BoundToOther(hwid string) bool {
	return k.HWID != nil && *k.HWID != "" && *k.HWID != hwid
}
