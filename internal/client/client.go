package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/libadmin/internal/auth"
	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/internal/http"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// Client implements the libadmin.Client interface.
type Client struct {
	httpClient  *http.Client
	coordinator *auth.RefreshCoordinator
	store       libadmin.SessionStore
	baseURL     string
	logger      libadmin.Logger
	notifier    libadmin.Notifier

	books      *Collection[libadmin.Book]
	authors    *Collection[libadmin.Author]
	students   *Collection[libadmin.Student]
	categories *Collection[libadmin.Category]
	publishers *Collection[libadmin.Publisher]
	loans      *Collection[libadmin.BookLoan]
	reports    *ReportsClient
	admin      *AdminClient
}

var _ libadmin.Client = (*Client)(nil)

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *libadmin.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// createCoordinatorOptions builds refresh coordinator options from config.
func createCoordinatorOptions(config *libadmin.Config) []auth.CoordinatorOption {
	var opts []auth.CoordinatorOption

	if config.RefreshThreshold > 0 {
		opts = append(opts, auth.WithThreshold(config.RefreshThreshold))
	}

	if config.Logger != nil {
		opts = append(opts, auth.WithLogger(config.Logger))
	}

	return opts
}

// New creates a new library admin client. When credentials are configured and
// the store holds no session, it logs in before returning.
func New(ctx context.Context, config *libadmin.Config) (*Client, error) {
	if config == nil {
		return nil, libadmin.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, libadmin.ErrAPIEndpointRequired
	}

	store := config.SessionStore
	if store == nil {
		store = auth.NewMemoryStore()
	}

	httpOpts := createHTTPClientOptions(config)

	// Auth exchanges never carry a bearer token, so they get their own pipeline.
	authService := auth.NewService(http.NewClient(config.APIEndpoint, nil, httpOpts...))
	coordinator := auth.NewRefreshCoordinator(store, authService, createCoordinatorOptions(config)...)

	client := &Client{
		httpClient:  http.NewClient(config.APIEndpoint, coordinator, httpOpts...),
		coordinator: coordinator,
		store:       store,
		baseURL:     config.APIEndpoint,
		logger:      config.Logger,
		notifier:    config.Notifier,
	}

	client.initializeResourceClients()

	if config.Username != "" && config.Password != "" {
		err := client.ensureSession(ctx, config.Username, config.Password)
		if err != nil {
			return nil, err
		}
	}

	return client, nil
}

func (c *Client) ensureSession(ctx context.Context, username, password string) error {
	session, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}

	if session != nil {
		return nil
	}

	_, err = c.coordinator.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	return nil
}

// initializeResourceClients creates all resource clients.
func (c *Client) initializeResourceClients() {
	c.books = NewCollection[libadmin.Book](c.httpClient, BooksEndpoint)
	c.authors = NewCollection[libadmin.Author](c.httpClient, AuthorsEndpoint)
	c.students = NewCollection[libadmin.Student](c.httpClient, StudentsEndpoint)
	c.categories = NewCollection[libadmin.Category](c.httpClient, CategoriesEndpoint)
	c.publishers = NewCollection[libadmin.Publisher](c.httpClient, PublishersEndpoint)
	c.loans = NewCollection[libadmin.BookLoan](c.httpClient, LoansEndpoint)
	c.reports = NewReportsClient(c.httpClient)
	c.admin = NewAdminClient(c.httpClient)
}

// BaseURL returns the API endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login implements libadmin.Client.Login.
func (c *Client) Login(ctx context.Context, username, password string) (*libadmin.Session, error) {
	session, err := c.coordinator.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	return session, nil
}

// Logout implements libadmin.Client.Logout.
func (c *Client) Logout(ctx context.Context) error {
	return c.coordinator.Logout(ctx)
}

// Session implements libadmin.Client.Session.
func (c *Client) Session(ctx context.Context) (*libadmin.Session, error) {
	return c.coordinator.Session(ctx)
}

// RefreshToken implements libadmin.Client.RefreshToken.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	return c.coordinator.ForceRefresh(ctx)
}

// Books implements libadmin.Client.Books.
func (c *Client) Books() libadmin.CollectionAPI[libadmin.Book] {
	return c.books
}

// Authors implements libadmin.Client.Authors.
func (c *Client) Authors() libadmin.CollectionAPI[libadmin.Author] {
	return c.authors
}

// Students implements libadmin.Client.Students.
func (c *Client) Students() libadmin.CollectionAPI[libadmin.Student] {
	return c.students
}

// Categories implements libadmin.Client.Categories.
func (c *Client) Categories() libadmin.CollectionAPI[libadmin.Category] {
	return c.categories
}

// Publishers implements libadmin.Client.Publishers.
func (c *Client) Publishers() libadmin.CollectionAPI[libadmin.Publisher] {
	return c.publishers
}

// Loans implements libadmin.Client.Loans.
func (c *Client) Loans() libadmin.CollectionAPI[libadmin.BookLoan] {
	return c.loans
}

// Reports implements libadmin.Client.Reports.
func (c *Client) Reports() libadmin.ReportsAPI {
	return c.reports
}

// Admin implements libadmin.Client.Admin.
func (c *Client) Admin() libadmin.AdminAPI {
	return c.admin
}

// ControllerOptions implements libadmin.Client.ControllerOptions.
func (c *Client) ControllerOptions() []libadmin.ControllerOption {
	opts := []libadmin.ControllerOption{libadmin.WithActor(c.username)}

	if c.notifier != nil {
		opts = append(opts, libadmin.WithNotifier(c.notifier))
	}

	if c.logger != nil {
		opts = append(opts, libadmin.WithControllerLogger(c.logger))
	}

	return opts
}

func (c *Client) username() string {
	session, err := c.store.Get(context.Background())
	if err != nil || session == nil {
		return ""
	}

	return session.Username
}

// loggerAdapter adapts libadmin.Logger to http.Logger.
type loggerAdapter struct {
	logger libadmin.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
