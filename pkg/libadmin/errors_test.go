package libadmin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:funlen
func TestParseResponseError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		status         int
		body           string
		expectedMsg    string
		expectedFields []FieldError
	}{
		{
			name:        "message only",
			status:      404,
			body:        `{"message":"Book not found"}`,
			expectedMsg: "Book not found",
		},
		{
			name:        "spring style error",
			status:      500,
			body:        `{"status":500,"error":"Internal Server Error"}`,
			expectedMsg: "Internal Server Error",
		},
		{
			name:        "field map",
			status:      400,
			body:        `{"message":"Validation failed","errors":{"title":"must not be blank","code":"duplicate"}}`,
			expectedMsg: "Validation failed",
			expectedFields: []FieldError{
				{Field: "code", Message: "duplicate"},
				{Field: "title", Message: "must not be blank"},
			},
		},
		{
			name:        "field list",
			status:      422,
			body:        `{"detail":"Invalid loan","errors":[{"field":"dueDate","defaultMessage":"must be after borrowDate"}]}`,
			expectedMsg: "Invalid loan",
			expectedFields: []FieldError{
				{Field: "dueDate", Message: "must be after borrowDate"},
			},
		},
		{
			name:        "plain text",
			status:      502,
			body:        "Bad Gateway\n",
			expectedMsg: "Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			respErr := ParseResponseError(tt.status, []byte(tt.body))
			assert.Equal(t, tt.status, respErr.StatusCode)
			assert.Equal(t, tt.expectedMsg, respErr.Message)
			assert.Equal(t, tt.expectedFields, respErr.FieldErrors)
		})
	}
}

func TestResponseError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "API error 404: Not Found", (&ResponseError{StatusCode: 404}).Error())
	assert.Equal(t,
		"API error 400: Validation failed (title: must not be blank)",
		(&ResponseError{
			StatusCode:  400,
			Message:     "Validation failed",
			FieldErrors: []FieldError{{Field: "title", Message: "must not be blank"}},
		}).Error(),
	)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	wrap := func(err error) error { return fmt.Errorf("listing books: %w", err) }

	notFound := wrap(&ResponseError{StatusCode: 404})
	unauthorized := wrap(&ResponseError{StatusCode: 401})
	forbidden := wrap(&ResponseError{StatusCode: 403})
	badRequest := wrap(&ResponseError{StatusCode: 400})
	unprocessable := wrap(&ResponseError{StatusCode: 422})
	transport := wrap(&TransportError{Method: "GET", URL: "http://x", Err: context.DeadlineExceeded})

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(badRequest))
	assert.True(t, IsUnauthorized(unauthorized))
	assert.True(t, IsForbidden(forbidden))
	assert.True(t, IsValidation(badRequest))
	assert.True(t, IsValidation(unprocessable))
	assert.False(t, IsValidation(notFound))
	assert.True(t, IsTransport(transport))
	assert.False(t, IsTransport(notFound))
	require.ErrorIs(t, transport, context.DeadlineExceeded)

	assert.True(t, IsAuthFailure(unauthorized))
	assert.True(t, IsAuthFailure(wrap(ErrUnauthenticated)))
	assert.True(t, IsAuthFailure(fmt.Errorf("%w: %w", ErrRefreshFailed, errors.New("boom")))) //nolint:err113
	assert.False(t, IsAuthFailure(forbidden))
	assert.False(t, IsAuthFailure(nil))
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	err := &TransportError{Method: "POST", URL: "http://localhost/api/books/search", Err: errBackendDown}

	assert.Equal(t, "transport error: POST http://localhost/api/books/search: backend down", err.Error())
	assert.ErrorIs(t, err, errBackendDown)
}
