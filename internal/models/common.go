// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("unsupported JSONB source %T", value)
	}
}

// Enums
type EventAction string

const (
	EventActionRegister EventAction = "register"
	EventActionLogin    EventAction = "login"
	EventActionVerify   EventAction = "verify"
	EventActionIssue    EventAction = "issue"
)

type EventOutcome string

const (
	EventOutcomeSuccess  EventOutcome = "success"
	EventOutcomeRejected EventOutcome = "rejected"
	EventOutcomeInvalid  EventOutcome = "invalid"
	EventOutcomeError    EventOutcome = "error"
)
