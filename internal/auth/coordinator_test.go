package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/libadmin/internal/auth"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRefreshRejected = errors.New("refresh rejected")

// fakeAuthenticator counts refreshes and can hold them open until released.
type fakeAuthenticator struct {
	calls   atomic.Int32
	once    sync.Once
	release chan struct{}
	started chan struct{}
	next    libadmin.Session
	err     error
}

func (f *fakeAuthenticator) Login(_ context.Context, username, _ string) (*libadmin.Session, error) {
	if f.err != nil {
		return nil, f.err
	}

	session := f.next
	session.Username = username

	return &session, nil
}

func (f *fakeAuthenticator) Refresh(ctx context.Context, _ string) (*libadmin.Session, error) {
	f.calls.Add(1)

	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if f.err != nil {
		return nil, f.err
	}

	session := f.next

	return &session, nil
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

func seededStore(t *testing.T, session libadmin.Session) *auth.MemoryStore {
	t.Helper()

	store := auth.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), session))

	return store
}

func TestRefreshCoordinator_NoSession(t *testing.T) {
	t.Parallel()

	fake := &fakeAuthenticator{}
	coordinator := auth.NewRefreshCoordinator(auth.NewMemoryStore(), fake)

	_, err := coordinator.GetToken(context.Background())
	require.ErrorIs(t, err, libadmin.ErrUnauthenticated)
	assert.Equal(t, int32(0), fake.calls.Load())
}

func TestRefreshCoordinator_NoPrematureRefresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		remaining time.Duration
		refreshes int32
		token     string
	}{
		{name: "well ahead of threshold", remaining: 5 * time.Hour, refreshes: 0, token: "old"},
		{name: "exactly at threshold", remaining: 2 * time.Hour, refreshes: 0, token: "old"},
		{name: "just below threshold", remaining: 2*time.Hour - time.Second, refreshes: 1, token: "new"},
		{name: "already expired", remaining: -time.Minute, refreshes: 1, token: "new"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := seededStore(t, libadmin.Session{Token: "old", ExpiresAt: now.Add(tt.remaining)})
			fake := &fakeAuthenticator{next: libadmin.Session{Token: "new", ExpiresAt: now.Add(24 * time.Hour)}}
			coordinator := auth.NewRefreshCoordinator(store, fake, auth.WithClock(fixedClock(now)))

			token, err := coordinator.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
			assert.Equal(t, tt.refreshes, fake.calls.Load())
		})
	}
}

func TestRefreshCoordinator_SingleFlightSuccess(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := seededStore(t, libadmin.Session{Token: "old", ExpiresAt: now.Add(time.Hour), Username: "admin"})
	fake := &fakeAuthenticator{
		release: make(chan struct{}),
		started: make(chan struct{}),
		next:    libadmin.Session{Token: "new", ExpiresAt: now.Add(24 * time.Hour)},
	}
	coordinator := auth.NewRefreshCoordinator(store, fake, auth.WithClock(fixedClock(now)))

	const callers = 20

	tokens := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup

	for i := range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			tokens[i], errs[i] = coordinator.GetToken(context.Background())
		}()
	}

	<-fake.started
	time.Sleep(20 * time.Millisecond)
	close(fake.release)
	wg.Wait()

	assert.Equal(t, int32(1), fake.calls.Load())

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "new", tokens[i])
	}

	session, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", session.Token)
	assert.Equal(t, "admin", session.Username, "username survives a refresh")
}

func TestRefreshCoordinator_SingleFlightFailure(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	original := libadmin.Session{Token: "old", ExpiresAt: now.Add(time.Hour), Username: "admin"}
	store := seededStore(t, original)
	fake := &fakeAuthenticator{
		release: make(chan struct{}),
		started: make(chan struct{}),
		err:     errRefreshRejected,
	}
	coordinator := auth.NewRefreshCoordinator(store, fake, auth.WithClock(fixedClock(now)))

	const callers = 10

	errs := make([]error, callers)

	var wg, ready sync.WaitGroup

	for i := range callers {
		wg.Add(1)
		ready.Add(1)

		go func() {
			defer wg.Done()

			ready.Done()

			_, errs[i] = coordinator.GetToken(context.Background())
		}()
	}

	ready.Wait()
	<-fake.started
	time.Sleep(20 * time.Millisecond)
	close(fake.release)
	wg.Wait()

	assert.Equal(t, int32(1), fake.calls.Load())

	for i := range callers {
		require.ErrorIs(t, errs[i], libadmin.ErrRefreshFailed)
		require.ErrorIs(t, errs[i], errRefreshRejected)
		assert.Equal(t, errs[0], errs[i], "every waiter observes the same failure")
	}

	session, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, original, *session, "a failed refresh leaves the store untouched")
}

func TestRefreshCoordinator_FailureIsNotRetried(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := seededStore(t, libadmin.Session{Token: "old", ExpiresAt: now.Add(time.Minute)})
	fake := &fakeAuthenticator{err: errRefreshRejected}
	coordinator := auth.NewRefreshCoordinator(store, fake, auth.WithClock(fixedClock(now)))

	_, err := coordinator.GetToken(context.Background())
	require.ErrorIs(t, err, libadmin.ErrRefreshFailed)
	assert.Equal(t, int32(1), fake.calls.Load())

	_, err = coordinator.GetToken(context.Background())
	require.ErrorIs(t, err, libadmin.ErrRefreshFailed)
	assert.Equal(t, int32(2), fake.calls.Load(), "a later request starts a new refresh")
}

func TestRefreshCoordinator_WaiterCancellation(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := seededStore(t, libadmin.Session{Token: "old", ExpiresAt: now.Add(time.Hour)})
	fake := &fakeAuthenticator{
		release: make(chan struct{}),
		started: make(chan struct{}),
		next:    libadmin.Session{Token: "new", ExpiresAt: now.Add(24 * time.Hour)},
	}
	coordinator := auth.NewRefreshCoordinator(store, fake, auth.WithClock(fixedClock(now)))

	starterCtx, cancelStarter := context.WithCancel(context.Background())
	starterErr := make(chan error, 1)

	go func() {
		_, err := coordinator.GetToken(starterCtx)
		starterErr <- err
	}()

	<-fake.started

	otherToken := make(chan string, 1)

	go func() {
		token, _ := coordinator.GetToken(context.Background())
		otherToken <- token
	}()

	cancelStarter()
	require.ErrorIs(t, <-starterErr, context.Canceled)

	close(fake.release)
	assert.Equal(t, "new", <-otherToken, "the refresh outlives the caller that started it")
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestRefreshCoordinator_ForceRefresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := seededStore(t, libadmin.Session{Token: "old", ExpiresAt: now.Add(20 * time.Hour)})
	fake := &fakeAuthenticator{next: libadmin.Session{Token: "forced", ExpiresAt: now.Add(24 * time.Hour)}}
	coordinator := auth.NewRefreshCoordinator(store, fake, auth.WithClock(fixedClock(now)))

	token, err := coordinator.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "forced", token)
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestRefreshCoordinator_CustomThreshold(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := seededStore(t, libadmin.Session{Token: "old", ExpiresAt: now.Add(time.Hour)})
	fake := &fakeAuthenticator{next: libadmin.Session{Token: "new", ExpiresAt: now.Add(24 * time.Hour)}}
	coordinator := auth.NewRefreshCoordinator(store, fake,
		auth.WithClock(fixedClock(now)),
		auth.WithThreshold(30*time.Minute),
	)

	assert.Equal(t, 30*time.Minute, coordinator.Threshold())

	token, err := coordinator.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "old", token)

	token, err = coordinator.EnsureFresh(context.Background(), 90*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "new", token)
}

func TestRefreshCoordinator_LoginLogout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := auth.NewMemoryStore()
	fake := &fakeAuthenticator{next: libadmin.Session{Token: "login", ExpiresAt: time.Now().Add(24 * time.Hour)}}
	coordinator := auth.NewRefreshCoordinator(store, fake)

	session, err := coordinator.Login(ctx, "staff", "pw")
	require.NoError(t, err)
	assert.Equal(t, "staff", session.Username)

	token, err := coordinator.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "login", token)

	require.NoError(t, coordinator.Logout(ctx))

	stored, err := coordinator.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, err = coordinator.GetToken(ctx)
	require.ErrorIs(t, err, libadmin.ErrUnauthenticated)
}

func TestRefreshCoordinator_LoginFailureKeepsStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	existing := libadmin.Session{Token: "keep", ExpiresAt: time.Now().Add(5 * time.Hour).Truncate(time.Second)}
	store := seededStore(t, existing)
	coordinator := auth.NewRefreshCoordinator(store, &fakeAuthenticator{err: errRefreshRejected})

	_, err := coordinator.Login(ctx, "staff", "pw")
	require.ErrorIs(t, err, errRefreshRejected)

	session, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, existing, *session)
}

// gatedStore holds its holdAt-th Get open until released.
type gatedStore struct {
	*auth.MemoryStore

	gets    atomic.Int32
	holdAt  int32
	held    chan struct{}
	release chan struct{}
}

func (s *gatedStore) Get(ctx context.Context) (*libadmin.Session, error) {
	if s.gets.Add(1) == s.holdAt {
		close(s.held)
		<-s.release
	}

	return s.MemoryStore.Get(ctx)
}

func TestRefreshCoordinator_ForceRefreshAfterNoopFlight(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store := &gatedStore{
		MemoryStore: seededStore(t, libadmin.Session{Token: "old", ExpiresAt: now.Add(time.Hour)}),
		holdAt:      2,
		held:        make(chan struct{}),
		release:     make(chan struct{}),
	}
	fake := &fakeAuthenticator{next: libadmin.Session{Token: "forced", ExpiresAt: now.Add(24 * time.Hour)}}
	coordinator := auth.NewRefreshCoordinator(store, fake, auth.WithClock(fixedClock(now)))

	var (
		wg             sync.WaitGroup
		thresholdToken string
		thresholdErr   error
		forcedToken    string
		forcedErr      error
	)

	wg.Add(1)

	go func() {
		defer wg.Done()

		thresholdToken, thresholdErr = coordinator.GetToken(context.Background())
	}()

	// The threshold flight is now re-reading the store. Another process
	// stores a fresh token meanwhile, so that flight will not refresh.
	<-store.held
	require.NoError(t, store.Set(context.Background(), libadmin.Session{Token: "external", ExpiresAt: now.Add(20 * time.Hour)}))

	wg.Add(1)

	go func() {
		defer wg.Done()

		forcedToken, forcedErr = coordinator.ForceRefresh(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	require.NoError(t, thresholdErr)
	require.NoError(t, forcedErr)
	assert.Equal(t, "external", thresholdToken)
	assert.Equal(t, "forced", forcedToken, "a forced refresh never settles for an unrefreshed token")
	assert.Equal(t, int32(1), fake.calls.Load())
}
