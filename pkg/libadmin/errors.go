package libadmin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrUnauthenticated     = errors.New("not authenticated: no session")
	ErrRefreshFailed       = errors.New("token refresh failed")
	ErrSuperseded          = errors.New("lookup superseded by a newer query")
	ErrLookupClosed        = errors.New("lookup coordinator closed")
	ErrInvalidSession      = errors.New("session requires both a token and an expiry")
	ErrInvalidQuery        = errors.New("invalid query")
	ErrConfigRequired      = errors.New("config is required")
	ErrAPIEndpointRequired = errors.New("API endpoint is required")
	ErrNilCollection       = errors.New("collection is required")
	ErrInvalidRole         = errors.New("invalid role")
)

// FieldError is a validation failure attached to one payload field.
type FieldError struct {
	Field   string `json:"field"   yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

// ResponseError is returned for every non-2xx response.
type ResponseError struct {
	StatusCode  int          `json:"status"                yaml:"status"`
	Message     string       `json:"message,omitempty"     yaml:"message,omitempty"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty" yaml:"field_errors,omitempty"`
	Body        []byte       `json:"-"                     yaml:"-"`
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	if len(e.FieldErrors) == 0 {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, msg)
	}

	parts := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}

	return fmt.Sprintf("API error %d: %s (%s)", e.StatusCode, msg, strings.Join(parts, "; "))
}

// Field returns the message reported for one field, if any.
func (e *ResponseError) Field(name string) (string, bool) {
	for _, fe := range e.FieldErrors {
		if fe.Field == name {
			return fe.Message, true
		}
	}

	return "", false
}

// TransportError wraps failures that happened before a response was received.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap exposes the underlying network or context error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// errorBody covers the shapes backends commonly use for error payloads.
type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Detail  string          `json:"detail"`
	Errors  json.RawMessage `json:"errors"`
}

type rawFieldError struct {
	Field          string `json:"field"`
	Message        string `json:"message"`
	DefaultMessage string `json:"defaultMessage"`
}

// ParseResponseError builds a ResponseError from a status code and body.
// Bodies that are not JSON become the message verbatim.
func ParseResponseError(statusCode int, data []byte) *ResponseError {
	respErr := &ResponseError{StatusCode: statusCode, Body: data}

	var body errorBody

	err := json.Unmarshal(data, &body)
	if err != nil {
		respErr.Message = strings.TrimSpace(string(data))

		return respErr
	}

	switch {
	case body.Message != "":
		respErr.Message = body.Message
	case body.Detail != "":
		respErr.Message = body.Detail
	default:
		respErr.Message = body.Error
	}

	respErr.FieldErrors = parseFieldErrors(body.Errors)

	return respErr
}

func parseFieldErrors(raw json.RawMessage) []FieldError {
	if len(raw) == 0 {
		return nil
	}

	var byField map[string]string

	err := json.Unmarshal(raw, &byField)
	if err == nil {
		fields := make([]FieldError, 0, len(byField))
		for field, msg := range byField {
			fields = append(fields, FieldError{Field: field, Message: msg})
		}

		sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })

		return fields
	}

	var list []rawFieldError

	err = json.Unmarshal(raw, &list)
	if err != nil {
		return nil
	}

	fields := make([]FieldError, 0, len(list))
	for _, item := range list {
		msg := item.Message
		if msg == "" {
			msg = item.DefaultMessage
		}

		fields = append(fields, FieldError{Field: item.Field, Message: msg})
	}

	return fields
}

func statusOf(err error) int {
	respErr := &ResponseError{}
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 response.
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a 403 response.
func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

// IsValidation checks if the error is a rejected payload (400 or 422).
func IsValidation(err error) bool {
	status := statusOf(err)

	return status == http.StatusBadRequest || status == http.StatusUnprocessableEntity
}

// IsTransport checks if the error happened before any response was received.
func IsTransport(err error) bool {
	transportErr := &TransportError{}

	return errors.As(err, &transportErr)
}

// IsAuthFailure reports errors after which the session should be discarded
// and the user asked to log in again.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrUnauthenticated) || errors.Is(err, ErrRefreshFailed) || IsUnauthorized(err)
}
