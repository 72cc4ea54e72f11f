package libadmin

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fivetwenty-io/libadmin/internal/constants"
)

// Request is a backend call as interceptors see it. Path is relative to the
// API endpoint, e.g. "/books/search" or "/book-loans/12". Headers already
// carry the bearer token when Authenticated is set.
type Request struct {
	Method        string
	Path          string
	Headers       http.Header
	Body          []byte
	Authenticated bool
	StartedAt     time.Time
}

// Route is the request's method and path with numeric ids collapsed, so
// "DELETE /books/7" and "DELETE /books/9" share "DELETE /books/{id}".
func (r *Request) Route() string {
	segments := strings.Split(r.Path, "/")
	for i, segment := range segments {
		if isNumeric(segment) {
			segments[i] = "{id}"
		}
	}

	return r.Method + " " + strings.Join(segments, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// Response is the outcome of a backend call. Error is set when nothing came
// back or the status was not 2xx.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Error      error
}

// RequestInterceptor may rewrite a request before it is sent. An error aborts the call.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor observes every completed call, failed ones included.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain runs interceptors in the order they were added.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// ExecuteRequestInterceptors stops at the first failing interceptor.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor for %s: %w", req.Route(), err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors stops at the first failing interceptor.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor for %s: %w", req.Route(), err)
		}
	}

	return nil
}

// LoggingInterceptor logs every outgoing call at debug level.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		logger.Debug("backend request", map[string]interface{}{
			"method":        req.Method,
			"path":          req.Path,
			"authenticated": req.Authenticated,
			"request_id":    req.Headers.Get(constants.RequestIDHeader),
		})

		return nil
	}
}

// LoggingResponseInterceptor logs failures at error level and the rest at debug.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
			"duration":    resp.Duration.String(),
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("backend request failed", fields)
		} else {
			logger.Debug("backend response", fields)
		}

		return nil
	}
}

// HeaderInterceptor sets fixed headers on every request.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		for key, value := range headers {
			req.Headers.Set(key, value)
		}

		return nil
	}
}

// RequestIDInterceptor tags every request with a fresh X-Request-ID unless one is set.
func RequestIDInterceptor() RequestInterceptor {
	return func(ctx context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(http.Header)
		}

		if req.Headers.Get(constants.RequestIDHeader) == "" {
			req.Headers.Set(constants.RequestIDHeader, uuid.NewString())
		}

		return nil
	}
}

// Metrics holds call statistics for one route.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	Unauthorized    int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector aggregates Metrics per route.
type MetricsCollector struct {
	mu       sync.Mutex
	metrics  map[string]*Metrics
	onChange func(route string, metrics Metrics)
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// SetOnChange registers a callback run after each recorded call, outside the lock.
func (m *MetricsCollector) SetOnChange(fn func(route string, metrics Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot for route, e.g. "POST /books/search".
func (m *MetricsCollector) GetMetrics(route string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if metrics, ok := m.metrics[route]; ok {
		return *metrics, true
	}

	return Metrics{}, false
}

// Routes lists the routes seen so far, sorted.
func (m *MetricsCollector) Routes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	routes := make([]string, 0, len(m.metrics))
	for route := range m.metrics {
		routes = append(routes, route)
	}

	sort.Strings(routes)

	return routes
}

func (m *MetricsCollector) record(req *Request, resp *Response) {
	route := req.Route()

	m.mu.Lock()

	metrics, ok := m.metrics[route]
	if !ok {
		metrics = &Metrics{}
		m.metrics[route] = metrics
	}

	metrics.TotalRequests++
	metrics.LastRequestTime = req.StartedAt
	metrics.TotalLatency += resp.Duration
	metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)

	if resp.Error != nil || resp.StatusCode >= http.StatusBadRequest {
		metrics.TotalErrors++
	}

	if resp.StatusCode == http.StatusUnauthorized {
		metrics.Unauthorized++
	}

	snapshot := *metrics
	onChange := m.onChange

	m.mu.Unlock()

	if onChange != nil {
		onChange(route, snapshot)
	}
}

// MetricsInterceptor records every completed call into collector.
func MetricsInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(ctx context.Context, req *Request, resp *Response) error {
		collector.record(req, resp)

		return nil
	}
}
