// internal/models/license_event.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// LicenseEvent is an append-only audit row for one handled license request.
type LicenseEvent struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LicenseKeyID *uuid.UUID   `json:"license_key_id" gorm:"type:uuid;index"`
	Action       EventAction  `json:"action" gorm:"type:varchar(20);not null;index"`
	Outcome      EventOutcome `json:"outcome" gorm:"type:varchar(20);not null"`
	Reason       string       `json:"reason,omitempty" gorm:"size:50"`
	Username     string       `json:"username,omitempty" gorm:"size:32"`
	HWID         string       `json:"hwid,omitempty" gorm:"column:hwid;size:255"`
	IPAddress    string       `json:"ip_address" gorm:"size:45"`
	UserAgent    string       `json:"user_agent" gorm:"type:text"`
	Details      JSONB        `json:"details,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time    `json:"created_at" gorm:"index"`
}

func (LicenseEvent) TableName() string {
	return "license_events"
}
