// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/license-backend/internal/i18n"
)

type ErrorKind string

const (
	ErrorKindValidation  ErrorKind = "validation"
	ErrorKindConflict    ErrorKind = "conflict"
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindRejected    ErrorKind = "rejected"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindUnavailable ErrorKind = "unavailable"
	ErrorKindInternal    ErrorKind = "internal"
)

// Reasons reported for domain rejections.
const (
	ReasonFieldsRequired     = "fields_required"
	ReasonUsernameLength     = "username_length"
	ReasonPasswordLength     = "password_length"
	ReasonKeyRequired        = "key_required"
	ReasonUsernameTaken      = "username_taken"
	ReasonInvalidKey         = "invalid_key"
	ReasonInactive           = "inactive"
	ReasonExpired            = "expired"
	ReasonAlreadyRegistered  = "already_registered"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonAccountInactive    = "account_inactive"
	ReasonLicenseExpired     = "license_expired"
	ReasonHwidMismatch       = "hwid_mismatch"
	ReasonNotFound           = "not_found"
	ReasonStoreFailure       = "store_failure"
	ReasonHashFailure        = "hash_failure"
)

// Error is returned by every license operation that does not succeed.
// MessageKey is an i18n key for the caller-facing message; Err holds the
// internal cause and is never shown to callers.
type Error struct {
	Kind         ErrorKind
	Reason       string
	MessageKey   string
	LicenseKeyID *uuid.UUID
	Err          error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError extracts a service error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func newError(kind ErrorKind, reason, messageKey string) *Error {
	return &Error{Kind: kind, Reason: reason, MessageKey: messageKey}
}

func (e *Error) forKey(id uuid.UUID) *Error {
	e.LicenseKeyID = &id
	return e
}

func internalError(messageKey string, err error) *Error {
	return &Error{Kind: ErrorKindInternal, Reason: ReasonStoreFailure, MessageKey: messageKey, Err: err}
}

func hashError(err error) *Error {
	return &Error{Kind: ErrorKindInternal, Reason: ReasonHashFailure, MessageKey: i18n.KeyRegisterFailed, Err: err}
}
