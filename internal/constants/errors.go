package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIEndpoint       = errors.New("no API endpoint configured, use 'libadmin config set api <url>'")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrSessionFieldsUnset  = errors.New("session fields cannot be changed via config command, use login/logout")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidConfigValue  = errors.New("invalid configuration value")
)

// Session errors.
var (
	ErrNotLoggedIn         = errors.New("not logged in, use 'libadmin login' first")
	ErrInvalidJWTFormat    = errors.New("invalid JWT format")
	ErrNoExpirationClaim   = errors.New("no expiration claim found")
	ErrMissingExpiry       = errors.New("server response carries neither expiresAt nor an exp claim")
	ErrEmptyTokenResponse  = errors.New("server returned an empty token")
	ErrCredentialsRequired = errors.New("username and password are required")
)

// Operation errors.
var (
	ErrUnknownCollection   = errors.New("unknown collection")
	ErrIDRequired          = errors.New("id is required")
	ErrPayloadRequired     = errors.New("a payload is required, use --data or --file")
	ErrPermissionDenied    = errors.New("current role is not allowed to perform this operation")
	ErrInvalidDateRange    = errors.New("start date must not be after end date")
	ErrUnsupportedEnvelope = errors.New("unsupported page envelope")
	ErrUnexpectedPage      = errors.New("backend did not return the requested page")
)
