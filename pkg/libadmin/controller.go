package libadmin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/libadmin/internal/constants"
)

// Status is the lifecycle state of a ResourceController.
type Status int

// Controller statuses.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ControllerState is a snapshot of a controller. Page keeps the last
// successfully loaded window even when Status is StatusFailed.
type ControllerState[T any] struct {
	Status Status
	Query  Query
	Page   Page[T]
	Err    error
}

// ControllerOption configures a ResourceController.
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	initial      Query
	notifier     Notifier
	logger       Logger
	discardStale bool
	username     func() string
}

// WithInitialQuery sets the query used by Refresh and by mutations issued
// before the first successful search.
func WithInitialQuery(q Query) ControllerOption {
	return func(o *controllerOptions) {
		o.initial = q.Clone()
	}
}

// WithNotifier publishes a MutationEvent after every successful mutation.
func WithNotifier(n Notifier) ControllerOption {
	return func(o *controllerOptions) {
		o.notifier = n
	}
}

// WithControllerLogger sets the logger used for notifier failures and transitions.
func WithControllerLogger(l Logger) ControllerOption {
	return func(o *controllerOptions) {
		o.logger = l
	}
}

// WithStaleResponseDiscard drops search responses that arrive after a newer
// search has already been applied. Without it the last response to arrive wins.
func WithStaleResponseDiscard() ControllerOption {
	return func(o *controllerOptions) {
		o.discardStale = true
	}
}

// WithActor names the user recorded on mutation events.
func WithActor(username func() string) ControllerOption {
	return func(o *controllerOptions) {
		o.username = username
	}
}

// ResourceController owns the visible page of one collection: it searches,
// mutates and reconciles by re-running the last successful query.
type ResourceController[T any] struct {
	name string
	api  CollectionAPI[T]
	opts controllerOptions

	mu        sync.Mutex
	state     ControllerState[T]
	lastQuery *Query
	issued    uint64
	applied   uint64
	listener  func(ControllerState[T])
}

// NewResourceController creates a controller for the named collection.
func NewResourceController[T any](name string, api CollectionAPI[T], opts ...ControllerOption) *ResourceController[T] {
	o := controllerOptions{
		initial: Query{Page: 0, Size: constants.DefaultPageSize},
		logger:  NopLogger{},
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &ResourceController[T]{
		name: name,
		api:  api,
		opts: o,
		state: ControllerState[T]{
			Status: StatusIdle,
			Query:  o.initial.Clone(),
			Page:   Page[T]{Content: []T{}, PageSize: o.initial.Size},
		},
	}
}

// Name returns the collection name.
func (c *ResourceController[T]) Name() string {
	return c.name
}

// API returns the underlying collection.
func (c *ResourceController[T]) API() CollectionAPI[T] {
	return c.api
}

// OnStateChange registers fn to be called after every state transition.
func (c *ResourceController[T]) OnStateChange(fn func(ControllerState[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listener = fn
}

// State returns a copy of the current state.
func (c *ResourceController[T]) State() ControllerState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

func (c *ResourceController[T]) snapshotLocked() ControllerState[T] {
	s := c.state
	s.Query = c.state.Query.Clone()
	s.Page.Content = append([]T(nil), c.state.Page.Content...)

	return s
}

// transition applies fn under the lock and notifies the listener outside it.
func (c *ResourceController[T]) transition(fn func()) {
	c.mu.Lock()
	fn()
	snapshot := c.snapshotLocked()
	listener := c.listener
	c.mu.Unlock()

	if listener != nil {
		listener(snapshot)
	}
}

// Search loads one page. On success the page and query replace the current
// ones; on failure the status becomes StatusFailed and the previous page stays.
func (c *ResourceController[T]) Search(ctx context.Context, query Query) (*Page[T], error) {
	err := query.Validate()
	if err != nil {
		return nil, err
	}

	query = query.Clone()

	var generation uint64

	c.transition(func() {
		c.issued++
		generation = c.issued
		c.state.Status = StatusLoading
	})

	page, err := c.api.Search(ctx, query.Clone())
	if err != nil {
		err = fmt.Errorf("searching %s: %w", c.name, err)
	} else if page == nil {
		page = &Page[T]{Content: []T{}, PageNumber: query.Page, PageSize: query.Size}
	}

	c.transition(func() {
		if c.opts.discardStale && generation < c.applied {
			c.opts.logger.Debug("discarding stale search response", map[string]interface{}{
				"collection": c.name,
				"generation": generation,
				"applied":    c.applied,
			})

			return
		}

		c.applied = generation

		if err != nil {
			c.state.Status = StatusFailed
			c.state.Err = err

			return
		}

		c.state.Status = StatusLoaded
		c.state.Err = nil
		c.state.Query = query
		c.state.Page = *page
		c.state.Page.Content = append([]T(nil), page.Content...)

		last := query.Clone()
		c.lastQuery = &last
	})

	if err != nil {
		return nil, err
	}

	return page, nil
}

// Refresh re-runs the last successful query, or the initial one.
func (c *ResourceController[T]) Refresh(ctx context.Context) (*Page[T], error) {
	return c.Search(ctx, c.reconcileQuery())
}

func (c *ResourceController[T]) reconcileQuery() Query {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastQuery != nil {
		return c.lastQuery.Clone()
	}

	return c.opts.initial.Clone()
}

// Get fetches one entity without touching the controller state.
func (c *ResourceController[T]) Get(ctx context.Context, id string) (*T, error) {
	item, err := c.api.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting %s %s: %w", c.name, id, err)
	}

	return item, nil
}

// Create stores a new entity and reloads the current page.
// The created entity is returned even if the reload fails.
func (c *ResourceController[T]) Create(ctx context.Context, item *T) (*T, error) {
	created, err := c.api.Create(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", c.name, err)
	}

	c.notify(ctx, OpCreate, entityID(created))

	_, err = c.Refresh(ctx)
	if err != nil {
		return created, err
	}

	return created, nil
}

// Update replaces an entity and reloads the current page.
func (c *ResourceController[T]) Update(ctx context.Context, id string, item *T) (*T, error) {
	updated, err := c.api.Update(ctx, id, item)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", c.name, id, err)
	}

	c.notify(ctx, OpUpdate, id)

	_, err = c.Refresh(ctx)
	if err != nil {
		return updated, err
	}

	return updated, nil
}

// Remove deletes an entity and reloads the current page. When the reload
// comes back empty on a page past the first, the previous page is loaded.
func (c *ResourceController[T]) Remove(ctx context.Context, id string) error {
	err := c.api.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("removing %s %s: %w", c.name, id, err)
	}

	c.notify(ctx, OpRemove, id)

	query := c.reconcileQuery()

	page, err := c.Search(ctx, query)
	if err != nil {
		return err
	}

	if page.IsEmpty() && query.Page > 0 {
		_, err = c.Search(ctx, query.WithPage(query.Page-1))
		if err != nil {
			return err
		}
	}

	return nil
}

// NewLookup returns a debounced lookup over this controller's collection.
func (c *ResourceController[T]) NewLookup(opts ...LookupOption) *LookupCoordinator[T] {
	return NewLookupCoordinator[T](c.api.Search, opts...)
}

func (c *ResourceController[T]) notify(ctx context.Context, op MutationOp, id string) {
	if c.opts.notifier == nil {
		return
	}

	event := MutationEvent{
		Collection: c.name,
		Op:         op,
		ID:         id,
		At:         time.Now().UTC(),
	}

	if c.opts.username != nil {
		event.Username = c.opts.username()
	}

	err := c.opts.notifier.Notify(ctx, event)
	if err != nil {
		c.opts.logger.Warn("failed to publish mutation event", map[string]interface{}{
			"collection": c.name,
			"op":         string(op),
			"id":         id,
			"error":      err.Error(),
		})
	}
}

func entityID[T any](item *T) string {
	if item == nil {
		return ""
	}

	if ident, ok := any(*item).(Identifiable); ok {
		return ident.EntityID()
	}

	return ""
}
