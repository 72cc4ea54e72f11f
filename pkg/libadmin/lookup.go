package libadmin

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/fivetwenty-io/libadmin/internal/constants"
)

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler arms timers. The default uses time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SearchFunc runs one search against a collection.
type SearchFunc[T any] func(ctx context.Context, query Query) (*Page[T], error)

// LookupOption configures a LookupCoordinator.
type LookupOption func(*lookupOptions)

type lookupOptions struct {
	window    time.Duration
	size      int
	filters   map[string]string
	scheduler Scheduler
}

// WithDebounceWindow sets the quiet window before a lookup is dispatched.
func WithDebounceWindow(d time.Duration) LookupOption {
	return func(o *lookupOptions) {
		o.window = d
	}
}

// WithLookupSize sets how many options a lookup loads.
func WithLookupSize(size int) LookupOption {
	return func(o *lookupOptions) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithLookupFilters adds fixed filters to every lookup query.
func WithLookupFilters(filters map[string]string) LookupOption {
	return func(o *lookupOptions) {
		o.filters = maps.Clone(filters)
	}
}

// WithScheduler replaces the timer source.
func WithScheduler(s Scheduler) LookupOption {
	return func(o *lookupOptions) {
		o.scheduler = s
	}
}

type lookupResult[T any] struct {
	page *Page[T]
	err  error
}

type pendingLookup[T any] struct {
	ctx   context.Context //nolint:containedctx // the caller's context travels with the armed timer
	text  string
	timer Timer
	done  chan lookupResult[T]
}

// LookupCoordinator debounces keystroke-driven searches. Only the last text
// typed within the quiet window reaches the backend; earlier callers receive
// ErrSuperseded. Empty text bypasses the window.
type LookupCoordinator[T any] struct {
	search SearchFunc[T]
	opts   lookupOptions

	mu      sync.Mutex
	pending *pendingLookup[T]
	closed  bool
}

// NewLookupCoordinator creates a coordinator over search.
func NewLookupCoordinator[T any](search SearchFunc[T], opts ...LookupOption) *LookupCoordinator[T] {
	o := lookupOptions{
		window:    constants.DefaultDebounceWindow,
		size:      constants.DefaultLookupSize,
		scheduler: realScheduler{},
	}

	for _, opt := range opts {
		opt(&o)
	}

	return &LookupCoordinator[T]{search: search, opts: o}
}

// Query schedules a lookup for text and blocks until it runs, is superseded,
// or ctx is done.
func (l *LookupCoordinator[T]) Query(ctx context.Context, text string) (*Page[T], error) {
	if text == "" {
		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()

			return nil, ErrLookupClosed
		}

		l.supersedeLocked()
		l.mu.Unlock()

		return l.run(ctx, text)
	}

	p := &pendingLookup[T]{
		ctx:  ctx,
		text: text,
		done: make(chan lookupResult[T], 1),
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()

		return nil, ErrLookupClosed
	}

	l.supersedeLocked()
	l.pending = p
	p.timer = l.opts.scheduler.AfterFunc(l.opts.window, func() { l.fire(p) })
	l.mu.Unlock()

	select {
	case res := <-p.done:
		return res.page, res.err
	case <-ctx.Done():
		l.mu.Lock()
		if l.pending == p {
			p.timer.Stop()
			l.pending = nil
		}
		l.mu.Unlock()

		return nil, ctx.Err()
	}
}

// Pending reports whether a lookup is waiting for its window to elapse.
func (l *LookupCoordinator[T]) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.pending != nil
}

// Close cancels the pending lookup and rejects further queries.
func (l *LookupCoordinator[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	l.supersedeLocked()
}

func (l *LookupCoordinator[T]) supersedeLocked() {
	if l.pending == nil {
		return
	}

	l.pending.timer.Stop()
	l.pending.done <- lookupResult[T]{err: ErrSuperseded}
	l.pending = nil
}

func (l *LookupCoordinator[T]) fire(p *pendingLookup[T]) {
	l.mu.Lock()
	if l.pending != p {
		l.mu.Unlock()

		return
	}

	l.pending = nil
	l.mu.Unlock()

	page, err := l.run(p.ctx, p.text)
	p.done <- lookupResult[T]{page: page, err: err}
}

func (l *LookupCoordinator[T]) run(ctx context.Context, text string) (*Page[T], error) {
	query := Query{
		Page:    0,
		Size:    l.opts.size,
		Keyword: text,
		Filters: maps.Clone(l.opts.filters),
	}

	return l.search(ctx, query)
}
