package libadmin

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{name: "token and expiry", session: Session{Token: "t", ExpiresAt: time.Now()}},
		{name: "token without expiry", session: Session{Token: "t"}, wantErr: true},
		{name: "expiry without token", session: Session{ExpiresAt: time.Now()}, wantErr: true},
		{name: "empty", session: Session{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.session.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidSession)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSession_Remaining(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{Token: "t", ExpiresAt: now.Add(90 * time.Minute)}

	assert.Equal(t, 90*time.Minute, s.Remaining(now))
	assert.Equal(t, -30*time.Minute, s.Remaining(now.Add(2*time.Hour)))
}

func TestQuery_CloneAndWithPage(t *testing.T) {
	t.Parallel()

	q := Query{Page: 3, Size: 10, Filters: map[string]string{"status": "LATE"}}
	clone := q.Clone()
	clone.Filters["status"] = "RETURNED"

	assert.Equal(t, "LATE", q.Filters["status"])

	prev := q.WithPage(-1)
	assert.Equal(t, 0, prev.Page)
	assert.Equal(t, 10, prev.Size)
	assert.Equal(t, 3, q.Page)
}

func TestPage_Helpers(t *testing.T) {
	t.Parallel()

	p := Page[string]{Content: []string{"e"}, TotalElements: 5, PageNumber: 2, PageSize: 2}

	assert.Equal(t, 4, p.Offset())
	assert.Equal(t, 3, p.TotalPages())
	assert.True(t, p.IsLast())
	assert.False(t, p.IsEmpty())

	assert.Equal(t, 0, Page[string]{}.TotalPages())
	assert.True(t, Page[string]{}.IsEmpty())

	far := Page[string]{TotalElements: math.MaxInt, PageNumber: math.MaxInt, PageSize: math.MaxInt}
	assert.Equal(t, 1, far.TotalPages())
	assert.Equal(t, math.MaxInt, far.Offset())
	assert.True(t, far.IsLast())
}

func TestSlice(t *testing.T) {
	t.Parallel()

	all := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name     string
		page     int
		size     int
		expected []string
	}{
		{name: "first page", page: 0, size: 2, expected: []string{"a", "b"}},
		{name: "last partial page", page: 2, size: 2, expected: []string{"e"}},
		{name: "past the end", page: 5, size: 2, expected: []string{}},
		{name: "zero size", page: 0, size: 0, expected: []string{}},
		{name: "page times size overflows", page: math.MaxInt/2 + 1, size: 2, expected: []string{}},
		{name: "max page", page: math.MaxInt, size: math.MaxInt, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := Slice(all, tt.page, tt.size)
			assert.Equal(t, tt.expected, p.Content)
			assert.Equal(t, 5, p.TotalElements)
			assert.Equal(t, tt.page, p.PageNumber)
			assert.LessOrEqual(t, len(p.Content), max(tt.size, 0))
		})
	}
}

func TestEntity_Labels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "B1 - Go", Book{Code: "B1", Title: "Go"}.Label())
	assert.Equal(t, "B2 - Legacy", Book{Code: "B2", Name: "Legacy"}.Label())
	assert.Equal(t, "S1 - An Nguyen", Student{StudentCode: "S1", FullName: "An Nguyen"}.Label())
	assert.Equal(t, "S2 - Binh", Student{Code: "S2", Name: "Binh"}.Label())
	assert.Equal(t, "Tran", Student{FullName: "Tran"}.Label())
	assert.Equal(t, "", Book{}.EntityID())
	assert.Equal(t, "42", BookLoan{ID: 42}.EntityID())
}
