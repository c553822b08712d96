// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyInternalError      = "error.internal"
	KeyServiceUnavailable = "error.service_unavailable"
	KeyServiceNotReady    = "error.service_not_configured"
	KeyMethodNotAllowed   = "error.method_not_allowed"
	KeyRateLimited        = "error.rate_limited"
	KeyInvalidBody        = "error.invalid_body"

	// Registration
	KeyRegisterSuccess           = "register.success"
	KeyRegisterFieldsRequired    = "register.fields_required"
	KeyRegisterUsernameLength    = "register.username_length"
	KeyRegisterPasswordLength    = "register.password_length"
	KeyRegisterUsernameTaken     = "register.username_taken"
	KeyRegisterInvalidKey        = "register.invalid_key"
	KeyRegisterKeyInactive       = "register.key_inactive"
	KeyRegisterKeyExpired        = "register.key_expired"
	KeyRegisterAlreadyRegistered = "register.already_registered"
	KeyRegisterFailed            = "register.failed"

	// Login
	KeyLoginSuccess            = "login.success"
	KeyLoginFieldsRequired     = "login.fields_required"
	KeyLoginInvalidCredentials = "login.invalid_credentials"
	KeyLoginAccountInactive    = "login.account_inactive"
	KeyLoginLicenseExpired     = "login.license_expired"
	KeyLoginHwidMismatch       = "login.hwid_mismatch"

	// Verification
	KeyVerifyValid       = "verify.valid"
	KeyVerifyKeyRequired = "verify.key_required"
	KeyVerifyNotFound    = "verify.not_found"
	KeyVerifyInactive    = "verify.inactive"
	KeyVerifyExpired     = "verify.expired"
)
