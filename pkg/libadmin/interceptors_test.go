package libadmin

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("rejected")

type capturedLog struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type captureLogger struct {
	mu   sync.Mutex
	logs []capturedLog
}

func (l *captureLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *captureLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *captureLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *captureLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func TestInterceptorChain_Order(t *testing.T) {
	t.Parallel()

	chain := NewInterceptorChain()

	var order []string

	chain.AddRequestInterceptor(func(ctx context.Context, req *Request) error {
		order = append(order, "first")

		return nil
	})
	chain.AddRequestInterceptor(func(ctx context.Context, req *Request) error {
		order = append(order, "second")

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &Request{Method: http.MethodGet, Path: "/books"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	chain := NewInterceptorChain()
	called := false

	chain.AddResponseInterceptor(func(ctx context.Context, req *Request, resp *Response) error {
		return errRejected
	})
	chain.AddResponseInterceptor(func(ctx context.Context, req *Request, resp *Response) error {
		called = true

		return nil
	})

	err := chain.ExecuteResponseInterceptors(context.Background(), &Request{}, &Response{})
	require.ErrorIs(t, err, errRejected)
	assert.False(t, called)
}

func TestRequestIDInterceptor(t *testing.T) {
	t.Parallel()

	interceptor := RequestIDInterceptor()

	req := &Request{}
	require.NoError(t, interceptor(context.Background(), req))

	_, err := uuid.Parse(req.Headers.Get("X-Request-ID"))
	require.NoError(t, err)

	preset := &Request{Headers: http.Header{"X-Request-Id": []string{"fixed"}}}
	require.NoError(t, interceptor(context.Background(), preset))
	assert.Equal(t, "fixed", preset.Headers.Get("X-Request-ID"))
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	req := &Request{}
	require.NoError(t, HeaderInterceptor(map[string]string{"X-Client": "cli"})(context.Background(), req))
	assert.Equal(t, "cli", req.Headers.Get("X-Client"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}
	ctx := context.Background()
	req := &Request{Method: http.MethodPost, Path: "/books/search", Headers: http.Header{}, Authenticated: true}

	require.NoError(t, LoggingInterceptor(logger)(ctx, req))
	require.NoError(t, LoggingResponseInterceptor(logger)(ctx, req, &Response{StatusCode: 200}))
	require.NoError(t, LoggingResponseInterceptor(logger)(ctx, req, &Response{StatusCode: 500, Error: errRejected}))

	require.Len(t, logger.logs, 3)
	assert.Equal(t, "backend request", logger.logs[0].msg)
	assert.Equal(t, true, logger.logs[0].fields["authenticated"])
	assert.Equal(t, "debug", logger.logs[1].level)
	assert.Equal(t, "error", logger.logs[2].level)
	assert.Equal(t, "rejected", logger.logs[2].fields["error"])
}

func TestRequest_Route(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method   string
		path     string
		expected string
	}{
		{method: http.MethodPost, path: "/books/search", expected: "POST /books/search"},
		{method: http.MethodDelete, path: "/books/7", expected: "DELETE /books/{id}"},
		{method: http.MethodPut, path: "/book-loans/12/return", expected: "PUT /book-loans/{id}/return"},
		{method: http.MethodGet, path: "/reports/daily-range", expected: "GET /reports/daily-range"},
		{method: http.MethodGet, path: "/students/S12", expected: "GET /students/S12"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, (&Request{Method: tt.method, Path: tt.path}).Route())
		})
	}
}

func TestMetricsInterceptor(t *testing.T) {
	t.Parallel()

	collector := NewMetricsCollector()
	ctx := context.Background()

	var changes int

	collector.SetOnChange(func(route string, m Metrics) {
		changes++
	})

	for i, status := range []int{200, 404, 401} {
		req := &Request{Method: http.MethodGet, Path: "/books/" + strconv.Itoa(i+1)}
		resp := &Response{StatusCode: status, Duration: 30 * time.Millisecond}
		require.NoError(t, MetricsInterceptor(collector)(ctx, req, resp))
	}

	metrics, ok := collector.GetMetrics("GET /books/{id}")
	require.True(t, ok)
	assert.Equal(t, int64(3), metrics.TotalRequests)
	assert.Equal(t, int64(2), metrics.TotalErrors)
	assert.Equal(t, int64(1), metrics.Unauthorized)
	assert.Equal(t, 30*time.Millisecond, metrics.AverageLatency)
	assert.Equal(t, 3, changes)
	assert.Equal(t, []string{"GET /books/{id}"}, collector.Routes())

	_, ok = collector.GetMetrics("GET /missing")
	assert.False(t, ok)
}
