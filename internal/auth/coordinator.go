package auth

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

const refreshKey = "refresh"

// alwaysRefresh forces a refresh regardless of remaining lifetime.
const alwaysRefresh = time.Duration(math.MaxInt64)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

// CoordinatorOption configures a RefreshCoordinator.
type CoordinatorOption func(*RefreshCoordinator)

// WithThreshold sets the remaining lifetime below which GetToken refreshes.
func WithThreshold(threshold time.Duration) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		c.now = now
	}
}

// WithRefreshTimeout bounds the shared refresh call.
func WithRefreshTimeout(timeout time.Duration) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		c.refreshTimeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) CoordinatorOption {
	return func(c *RefreshCoordinator) {
		c.logger = logger
	}
}

// RefreshCoordinator hands out tokens and refreshes them at most once at a
// time. Callers arriving while a refresh is in flight wait for it and share
// its outcome, success or failure.
type RefreshCoordinator struct {
	store          libadmin.SessionStore
	auth           Authenticator
	threshold      time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	logger         Logger

	// pending holds the single in-flight refresh.
	pending singleflight.Group
}

// NewRefreshCoordinator creates a coordinator over store.
func NewRefreshCoordinator(store libadmin.SessionStore, auth Authenticator, opts ...CoordinatorOption) *RefreshCoordinator {
	c := &RefreshCoordinator{
		store:          store,
		auth:           auth,
		threshold:      constants.DefaultRefreshThreshold,
		refreshTimeout: constants.RefreshTimeout,
		now:            time.Now,
		logger:         nopLogger{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Threshold returns the configured refresh threshold.
func (c *RefreshCoordinator) Threshold() time.Duration {
	return c.threshold
}

// GetToken returns a token with at least the configured threshold of life left.
func (c *RefreshCoordinator) GetToken(ctx context.Context) (string, error) {
	return c.EnsureFresh(ctx, c.threshold)
}

// EnsureFresh returns the stored token if it stays valid for at least
// threshold, otherwise joins or starts the single refresh. A failed refresh
// leaves the store untouched and is not retried.
func (c *RefreshCoordinator) EnsureFresh(ctx context.Context, threshold time.Duration) (string, error) {
	session, err := c.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("reading session: %w", err)
	}

	if session == nil {
		return "", libadmin.ErrUnauthenticated
	}

	if session.Remaining(c.now()) >= threshold {
		return session.Token, nil
	}

	for {
		result := c.pending.DoChan(refreshKey, func() (interface{}, error) {
			return c.refresh(ctx, threshold)
		})

		select {
		case res := <-result:
			if res.Err != nil {
				return "", res.Err
			}

			outcome, _ := res.Val.(refreshOutcome)
			if c.satisfies(outcome, threshold) {
				return outcome.token, nil
			}
			// The joined flight found a token good enough for its starter
			// but not for this caller; start another.
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// refreshOutcome is the shared result of one flight.
type refreshOutcome struct {
	token     string
	expiresAt time.Time
	refreshed bool
}

// satisfies reports whether a flight's outcome serves a caller asking for
// threshold. A token fresh from the backend always does.
func (c *RefreshCoordinator) satisfies(outcome refreshOutcome, threshold time.Duration) bool {
	if outcome.refreshed {
		return true
	}

	if threshold == alwaysRefresh {
		return false
	}

	return outcome.expiresAt.Sub(c.now()) >= threshold
}

// ForceRefresh always obtains a new token from the backend. It shares a
// refresh already in flight only if that flight actually refreshed.
func (c *RefreshCoordinator) ForceRefresh(ctx context.Context) (string, error) {
	return c.EnsureFresh(ctx, alwaysRefresh)
}

// refresh runs detached from the starting caller's cancellation so that one
// caller giving up does not fail the others.
func (c *RefreshCoordinator) refresh(parent context.Context, threshold time.Duration) (refreshOutcome, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.refreshTimeout)
	defer cancel()

	current, err := c.store.Get(ctx)
	if err != nil {
		return refreshOutcome{}, fmt.Errorf("%w: reading session: %w", libadmin.ErrRefreshFailed, err)
	}

	if current == nil {
		return refreshOutcome{}, libadmin.ErrUnauthenticated
	}

	// A refresh that completed just before this one started already stored a fresh token.
	if threshold != alwaysRefresh && current.Remaining(c.now()) >= threshold {
		return refreshOutcome{token: current.Token, expiresAt: current.ExpiresAt}, nil
	}

	next, err := c.auth.Refresh(ctx, current.Token)
	if err != nil {
		c.logger.Warn("token refresh failed", map[string]interface{}{
			"username": current.Username,
			"error":    err.Error(),
		})

		return refreshOutcome{}, fmt.Errorf("%w: %w", libadmin.ErrRefreshFailed, err)
	}

	if next.Username == "" {
		next.Username = current.Username
	}

	err = c.store.Set(ctx, *next)
	if err != nil {
		return refreshOutcome{}, fmt.Errorf("%w: storing session: %w", libadmin.ErrRefreshFailed, err)
	}

	c.logger.Info("token refreshed", map[string]interface{}{
		"username":   next.Username,
		"expires_at": next.ExpiresAt.Format(time.RFC3339),
	})

	return refreshOutcome{token: next.Token, expiresAt: next.ExpiresAt, refreshed: true}, nil
}

// Login authenticates and stores the new session.
func (c *RefreshCoordinator) Login(ctx context.Context, username, password string) (*libadmin.Session, error) {
	session, err := c.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	err = c.store.Set(ctx, *session)
	if err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}

	c.logger.Info("logged in", map[string]interface{}{"username": session.Username})

	return session, nil
}

// Logout clears the stored session.
func (c *RefreshCoordinator) Logout(ctx context.Context) error {
	err := c.store.Clear(ctx)
	if err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	return nil
}

// Session returns the stored session, or nil.
func (c *RefreshCoordinator) Session(ctx context.Context) (*libadmin.Session, error) {
	session, err := c.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	return session, nil
}
