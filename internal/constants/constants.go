package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// SessionFilePerm is the permission for the session database.
	SessionFilePerm = 0600
)

// Default locations, relative to the user's home directory.
const (
	// ConfigDirName is the directory holding CLI configuration and session state.
	ConfigDirName = ".libadmin"

	// ConfigFileName is the CLI configuration file name (without extension).
	ConfigFileName = "config"

	// SessionFileName is the bbolt session database file name.
	SessionFileName = "session.db"
)

// API defaults.
const (
	// DefaultAPIEndpoint is the backend base URL used when none is configured.
	DefaultAPIEndpoint = "http://localhost:8080/api"

	// DefaultUserAgent is sent when the caller does not override it.
	DefaultUserAgent = "libadmin-go/1.0.0"

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for a dispatched request.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations such as login and info.
	ShortHTTPTimeout = 10 * time.Second

	// RefreshTimeout bounds a single token refresh exchange.
	RefreshTimeout = 15 * time.Second
)

// Retry limits. Retries are disabled unless a caller opts in.
const (
	// DefaultRetryMax is the retry count used by the pipeline when no retry is configured.
	DefaultRetryMax = 0

	// OptInRetryMax is the retry count used when a caller enables retries without a count.
	OptInRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Session and refresh.
const (
	// DefaultRefreshThreshold is the remaining lifetime below which a token is refreshed.
	DefaultRefreshThreshold = 2 * time.Hour

	// SessionBucket is the bbolt bucket holding the current session.
	SessionBucket = "session"

	// SessionKey is the key of the current session inside SessionBucket.
	SessionKey = "current"
)

// Lookup and pagination.
const (
	// DefaultDebounceWindow is the quiet window before a lookup is dispatched.
	DefaultDebounceWindow = 500 * time.Millisecond

	// DefaultLookupSize is the number of options loaded per lookup.
	DefaultLookupSize = 20

	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 10

	// MaxPageSize caps page size requests from the CLI.
	MaxPageSize = 200
)

// HTTP status codes commonly used.
const (
	// HTTPStatusBadRequest represents a client error.
	HTTPStatusBadRequest = 400

	// HTTPStatusUnprocessableEntity is returned for payload validation failures.
	HTTPStatusUnprocessableEntity = 422

	// HTTPStatusInternalServerError represents server errors.
	HTTPStatusInternalServerError = 500
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// DateLayout is the calendar date format used by the backend.
	DateLayout = "2006-01-02"
)

// Format constants.
const (
	// FormatTable for tabular output.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"
)

// NATS event publishing.
const (
	// DefaultEventSubjectPrefix prefixes mutation event subjects.
	DefaultEventSubjectPrefix = "libadmin.mutations"

	// NATSConnectTimeout bounds the initial NATS connection.
	NATSConnectTimeout = 5 * time.Second
)
