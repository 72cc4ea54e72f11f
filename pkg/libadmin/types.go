package libadmin

import (
	"fmt"
	"maps"
	"math"
	"time"
)

// Sort directions understood by the backend.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Session is the authenticated state shared by every request.
// Token and ExpiresAt are either both set or both empty.
type Session struct {
	Token     string    `json:"token"              yaml:"token"`
	ExpiresAt time.Time `json:"expires_at"         yaml:"expires_at"`
	Username  string    `json:"username,omitempty" yaml:"username,omitempty"`
}

// Validate reports whether the session holds a token together with its expiry.
func (s Session) Validate() error {
	if s.Token == "" || s.ExpiresAt.IsZero() {
		return ErrInvalidSession
	}

	return nil
}

// Remaining returns how long the token stays valid relative to now.
func (s Session) Remaining(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// Query describes one search against a collection. A controller keeps its own
// copy, so callers may reuse the value afterwards.
type Query struct {
	Page    int               `json:"page"              yaml:"page"`
	Size    int               `json:"size"              yaml:"size"`
	Keyword string            `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Filters map[string]string `json:"filters,omitempty" yaml:"filters,omitempty"`
	SortBy  string            `json:"sortBy,omitempty"  yaml:"sort_by,omitempty"`
	SortDir string            `json:"sortDir,omitempty" yaml:"sort_dir,omitempty"`
}

// Validate checks the page and size bounds.
func (q Query) Validate() error {
	if q.Page < 0 {
		return fmt.Errorf("%w: page %d must not be negative", ErrInvalidQuery, q.Page)
	}

	if q.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalidQuery, q.Size)
	}

	return nil
}

// Clone returns a deep copy of the query.
func (q Query) Clone() Query {
	out := q
	if q.Filters != nil {
		out.Filters = maps.Clone(q.Filters)
	}

	return out
}

// WithPage returns a copy of the query pointing at another page.
func (q Query) WithPage(page int) Query {
	out := q.Clone()
	out.Page = max(page, 0)

	return out
}

// Page is one window of a collection.
type Page[T any] struct {
	Content       []T `json:"content"       yaml:"content"`
	TotalElements int `json:"totalElements" yaml:"total_elements"`
	PageNumber    int `json:"pageNumber"    yaml:"page_number"`
	PageSize      int `json:"pageSize"      yaml:"page_size"`
}

// Offset is the position of the first element of Content in the full collection.
func (p Page[T]) Offset() int {
	if p.PageSize > 0 && p.PageNumber > math.MaxInt/p.PageSize {
		return math.MaxInt
	}

	return p.PageNumber * p.PageSize
}

// TotalPages returns the number of pages of PageSize needed for TotalElements.
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}

	pages := p.TotalElements / p.PageSize
	if p.TotalElements%p.PageSize != 0 {
		pages++
	}

	return pages
}

// IsEmpty reports whether the page holds no elements.
func (p Page[T]) IsEmpty() bool {
	return len(p.Content) == 0
}

// IsLast reports whether no page follows this one.
func (p Page[T]) IsLast() bool {
	return p.PageNumber >= p.TotalPages()-1
}

// Slice cuts the requested window out of a full listing. It backs endpoints
// that return the whole collection as a bare array.
func Slice[T any](all []T, page, size int) Page[T] {
	result := Page[T]{
		Content:       []T{},
		TotalElements: len(all),
		PageNumber:    page,
		PageSize:      size,
	}

	// Comparing page numbers first keeps page*size from overflowing.
	if size <= 0 || page < 0 || len(all) == 0 || page > (len(all)-1)/size {
		return result
	}

	start := page * size

	end := min(start+size, len(all))
	result.Content = append(result.Content, all[start:end]...)

	return result
}
