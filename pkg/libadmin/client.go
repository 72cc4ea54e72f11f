package libadmin

import (
	"context"
	"time"
)

// SessionStore persists the current Session. Set and Clear must be durable
// before they return. Get returns nil and no error when no session exists.
type SessionStore interface {
	Get(ctx context.Context) (*Session, error)
	Set(ctx context.Context, session Session) error
	Clear(ctx context.Context) error
}

// CollectionAPI is the remote surface of one entity collection.
type CollectionAPI[T any] interface {
	Search(ctx context.Context, query Query) (*Page[T], error)
	Get(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, item *T) (*T, error)
	Update(ctx context.Context, id string, item *T) (*T, error)
	Remove(ctx context.Context, id string) error
}

// Notifier receives an event after every successful mutation.
type Notifier interface {
	Notify(ctx context.Context, event MutationEvent) error
}

// MutationOp names the kind of mutation.
type MutationOp string

// Mutation kinds.
const (
	OpCreate MutationOp = "create"
	OpUpdate MutationOp = "update"
	OpRemove MutationOp = "remove"
)

// MutationEvent describes a successful create, update or remove.
type MutationEvent struct {
	Collection string     `json:"collection"`
	Op         MutationOp `json:"op"`
	ID         string     `json:"id,omitempty"`
	Username   string     `json:"username,omitempty"`
	At         time.Time  `json:"at"`
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a libclient.Client.
//
// # Authentication
//
// The client keeps its session in SessionStore. When Username and Password
// are set and the store holds no session, libclient.New logs in once before
// returning. Afterwards every authenticated request goes through the refresh
// coordinator: tokens whose remaining lifetime is below RefreshThreshold are
// renewed by a single shared call to the refresh endpoint.
//
// # Timeouts and retries
//
// HTTPTimeout bounds every dispatched request unless a request carries its own
// timeout. Retries are off by default; set RetryMax to opt in.
type Config struct {
	// APIEndpoint: base URL of the backend, including the "/api" prefix.
	APIEndpoint string

	// Username and Password are used for the initial login when the store is empty.
	Username string
	Password string

	// SessionStore: where the session lives. Defaults to an in-memory store.
	SessionStore SessionStore
	// RefreshThreshold: remaining lifetime below which a token is refreshed. Defaults to 2h.
	RefreshThreshold time.Duration

	HTTPTimeout  time.Duration
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and controllers.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Interceptors run around every request, after the bearer token is attached.
	Interceptors *InterceptorChain
	// Notifier: receives mutation events. Defaults to none.
	Notifier Notifier
}

// ReportsAPI reads loan activity reports. Ranges are inclusive calendar days.
type ReportsAPI interface {
	DailySummary(ctx context.Context, start, end time.Time) ([]DailySummary, error)
	Overdue(ctx context.Context, start, end time.Time) ([]OverdueEntry, error)
}

// AdminAPI reads the account behind the current session.
type AdminAPI interface {
	Info(ctx context.Context) (*AdminInfo, error)
}

// Client is the main interface for the library administration API.
type Client interface {
	// Session management
	Login(ctx context.Context, username, password string) (*Session, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (*Session, error)
	RefreshToken(ctx context.Context) (string, error)

	// Collections
	Books() CollectionAPI[Book]
	Authors() CollectionAPI[Author]
	Students() CollectionAPI[Student]
	Categories() CollectionAPI[Category]
	Publishers() CollectionAPI[Publisher]
	Loans() CollectionAPI[BookLoan]

	Reports() ReportsAPI
	Admin() AdminAPI

	// ControllerOptions returns the options every controller built on this
	// client should start from: notifier, logger and acting user.
	ControllerOptions() []ControllerOption
}
