// internal/store/store.go

// Package store defines persistence for license keys.
// Both backends (PostgreSQL through gorm, embedded SQLite) satisfy
// LicenseKeyStore so services never see which one is in use.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/javajoker/license-backend/internal/models"
)

var (
	ErrNotFound     = errors.New("store: record not found")
	ErrDuplicate    = errors.New("store: unique constraint violated")
	ErrEmptyFilter  = errors.New("store: filter matches every record")
	ErrUnknownField = errors.New("store: unknown column")
)

// LicenseKeyStore is the single collection of license key records.
// Implementations must be safe for concurrent use.
type LicenseKeyStore interface {
	Insert(ctx context.Context, key *models.LicenseKey) error
	FindOne(ctx context.Context, filter Filter) (*models.LicenseKey, error)
	// Update applies fields to every record matching filter and returns
	// how many records changed.
	Update(ctx context.Context, filter Filter, fields Fields) (int64, error)

	RecordEvent(ctx context.Context, event *models.LicenseEvent) error
	// ListEvents returns the audit trail of one key, oldest first.
	ListEvents(ctx context.Context, licenseKeyID uuid.UUID) ([]*models.LicenseEvent, error)

	Ping(ctx context.Context) error
	Close() error
}

// Filter selects license keys. Zero-valued members are ignored; at least
// one identifying member (ID, KeyHash, Username) must be set.
type Filter struct {
	ID       uuid.UUID
	KeyHash  string
	Username string

	// Unregistered restricts the match to is_registered = false.
	Unregistered bool
	// HWIDFreeOr restricts the match to records with no hardware id or
	// with exactly this one.
	HWIDFreeOr string
}

// Fields maps column names (models.Column*) to new values.
type Fields map[string]interface{}

var updatableColumns = map[string]bool{
	models.ColumnIsActive:     true,
	models.ColumnIsRegistered: true,
	models.ColumnUsername:     true,
	models.ColumnPasswordHash: true,
	models.ColumnHWID:         true,
	models.ColumnExpiresAt:    true,
	models.ColumnLastUsedAt:   true,
}

func (f Filter) where() (string, []interface{}, error) {
	if f.ID == uuid.Nil && f.KeyHash == "" && f.Username == "" {
		return "", nil, ErrEmptyFilter
	}

	var clauses []string
	var args []interface{}

	if f.ID != uuid.Nil {
		clauses = append(clauses, models.ColumnID+" = ?")
		args = append(args, f.ID.String())
	}
	if f.KeyHash != "" {
		clauses = append(clauses, models.ColumnKeyHash+" = ?")
		args = append(args, f.KeyHash)
	}
	if f.Username != "" {
		clauses = append(clauses, models.ColumnUsername+" = ?")
		args = append(args, f.Username)
	}
	if f.Unregistered {
		clauses = append(clauses, models.ColumnIsRegistered+" = ?")
		args = append(args, false)
	}
	if f.HWIDFreeOr != "" {
		clauses = append(clauses, "("+models.ColumnHWID+" IS NULL OR "+models.ColumnHWID+" = '' OR "+models.ColumnHWID+" = ?)")
		args = append(args, f.HWIDFreeOr)
	}

	return strings.Join(clauses, " AND "), args, nil
}

// columns returns the field names in a stable order after checking each
// one is updatable.
func (f Fields) columns() ([]string, error) {
	if len(f) == 0 {
		return nil, errors.New("store: no fields to update")
	}

	cols := make([]string, 0, len(f))
	for col := range f {
		if !updatableColumns[col] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols, nil
}
