package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// TokenProvider supplies a bearer token that is fresh enough to send.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Request is one call through the pipeline.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string

	// SkipAuth sends the request without asking the token provider.
	SkipAuth bool
	// Timeout overrides the client timeout for this request.
	Timeout time.Duration
}

// Response is a completed HTTP exchange.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client attaches a fresh bearer token to every authenticated request and
// reports non-2xx responses as *libadmin.ResponseError.
type Client struct {
	baseURL       string
	httpClient    *retryablehttp.Client
	tokenProvider TokenProvider
	logger        Logger
	debug         bool
	userAgent     string
	timeout       time.Duration
	interceptors  *libadmin.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig enables retries of 5xx, 429 and connection failures.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds every request that does not carry its own timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *libadmin.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// NewClient creates a pipeline rooted at baseURL. tokenProvider may be nil
// for unauthenticated clients.
func NewClient(baseURL string, tokenProvider TokenProvider, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = constants.DefaultRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = keepLastResponse

	client := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    retryClient,
		tokenProvider: tokenProvider,
		userAgent:     constants.DefaultUserAgent,
		timeout:       constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil && client.debug && retryClient.RetryMax > 0 {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

// BaseURL returns the root every request path is joined to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// keepLastResponse hands the final response back to the caller once retries
// are exhausted, so status handling stays in Do.
func keepLastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}

	return nil, err
}

// Do sends the request. A token failure aborts before anything is sent.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL := c.buildURL(req.Path, req.Query)

	var bodyBytes []byte

	if req.Body != nil {
		var err error

		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	headers := make(http.Header)
	headers.Set("Accept", "application/json")
	headers.Set("User-Agent", c.userAgent)

	if bodyBytes != nil {
		headers.Set("Content-Type", "application/json")
	}

	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	if c.tokenProvider != nil && !req.SkipAuth {
		token, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("getting auth token: %w", err)
		}

		headers.Set("Authorization", "Bearer "+token)
	}

	intercepted := &libadmin.Request{
		Method:        req.Method,
		Path:          req.Path,
		Headers:       headers,
		Body:          bodyBytes,
		Authenticated: headers.Get("Authorization") != "",
	}

	if c.interceptors != nil {
		err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	timeout := c.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	intercepted.StartedAt = time.Now()
	resp, err := c.send(ctx, req.Method, fullURL, intercepted)

	if c.interceptors != nil {
		observed := &libadmin.Response{Error: err, Duration: time.Since(intercepted.StartedAt)}
		if resp != nil {
			observed.StatusCode = resp.StatusCode
			observed.Headers = resp.Headers
			observed.Body = resp.Body
		}

		interceptErr := c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, observed)
		if interceptErr != nil && err == nil {
			return resp, interceptErr
		}
	}

	return resp, err
}

func (c *Client) send(ctx context.Context, method, fullURL string, req *libadmin.Request) (*Response, error) {
	var rawBody interface{}
	if req.Body != nil {
		rawBody = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = req.Headers.Clone()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": method,
			"url":    fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &libadmin.TransportError{Method: method, URL: fullURL, Err: err}
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &libadmin.TransportError{Method: method, URL: fullURL, Err: fmt.Errorf("reading response body: %w", err)}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method": method,
			"url":    fullURL,
			"status": httpResp.StatusCode,
		})
	}

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return resp, libadmin.ParseResponseError(httpResp.StatusCode, respBody)
	}

	return resp, nil
}

func (c *Client) buildURL(path string, query url.Values) string {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	return fullURL
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// leveledLogger routes retryablehttp's own logging through Logger.
type leveledLogger struct {
	logger Logger
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}
