package libadmin

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
)

var errBackendDown = errors.New("backend down")

// memBooks is an in-memory book collection paginated like the backend.
type memBooks struct {
	mu        sync.Mutex
	items     []Book
	nextID    int64
	searches  []Query
	searchErr error
	gate      map[string]chan struct{}
}

func newMemBooks(titles ...string) *memBooks {
	m := &memBooks{gate: map[string]chan struct{}{}}
	for _, title := range titles {
		m.nextID++
		m.items = append(m.items, Book{ID: m.nextID, Code: "B" + strconv.FormatInt(m.nextID, 10), Title: title})
	}

	return m
}

func (m *memBooks) Search(ctx context.Context, q Query) (*Page[Book], error) {
	m.mu.Lock()
	m.searches = append(m.searches, q.Clone())
	gate := m.gate[q.Keyword]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.searchErr != nil {
		return nil, m.searchErr
	}

	matched := make([]Book, 0, len(m.items))

	for _, b := range m.items {
		if q.Keyword == "" || strings.Contains(b.Title, q.Keyword) {
			matched = append(matched, b)
		}
	}

	page := Slice(matched, q.Page, q.Size)

	return &page, nil
}

func (m *memBooks) Get(_ context.Context, id string) (*Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.items {
		if b.EntityID() == id {
			found := b

			return &found, nil
		}
	}

	return nil, &ResponseError{StatusCode: 404, Message: "book not found"}
}

func (m *memBooks) Create(_ context.Context, item *Book) (*Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if item.Title == "" {
		return nil, &ResponseError{StatusCode: 400, FieldErrors: []FieldError{{Field: "title", Message: "must not be blank"}}}
	}

	m.nextID++
	created := *item
	created.ID = m.nextID
	m.items = append(m.items, created)

	return &created, nil
}

func (m *memBooks) Update(_ context.Context, id string, item *Book) (*Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.items {
		if b.EntityID() == id {
			updated := *item
			updated.ID = b.ID
			m.items[i] = updated

			return &updated, nil
		}
	}

	return nil, &ResponseError{StatusCode: 404}
}

func (m *memBooks) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.items {
		if b.EntityID() == id {
			m.items = append(m.items[:i], m.items[i+1:]...)

			return nil
		}
	}

	return &ResponseError{StatusCode: 404}
}

func (m *memBooks) searchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.searches)
}

func (m *memBooks) lastSearch() Query {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.searches[len(m.searches)-1]
}

func titles(books []Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}

	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []MutationEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, event MutationEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, event)

	return n.err
}
