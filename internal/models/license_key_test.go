package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLicenseKeyExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name    string
		key     LicenseKey
		expired bool
	}{
		{"no expiry", LicenseKey{IsActive: true}, false},
		{"expires in future", LicenseKey{IsActive: true, ExpiresAt: &future}, false},
		{"expires exactly now", LicenseKey{IsActive: true, ExpiresAt: &now}, true},
		{"expired", LicenseKey{IsActive: true, ExpiresAt: &past}, true},
		{"inactive keeps its expiry", LicenseKey{IsActive: false, ExpiresAt: &past}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, tt.key.IsExpired(now))
		})
	}
}

func TestLicenseKeyBoundToOther(t *testing.T) {
	hwid := "H1"
	empty := ""

	assert.False(t, (&LicenseKey{}).BoundToOther("H1"), "unbound key")
	assert.False(t, (&LicenseKey{HWID: &empty}).BoundToOther("H1"), "empty hwid")
	assert.False(t, (&LicenseKey{HWID: &hwid}).BoundToOther("H1"), "same machine")
	assert.True(t, (&LicenseKey{HWID: &hwid}).BoundToOther("H2"), "other machine")
}
