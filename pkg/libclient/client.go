package libclient

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/libadmin/internal/auth"
	"github.com/fivetwenty-io/libadmin/internal/client"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// New creates a new library admin client.
func New(ctx context.Context, config *libadmin.Config) (libadmin.Client, error) {
	if config == nil {
		return nil, libadmin.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, libadmin.ErrAPIEndpointRequired
	}

	normalized := *config
	normalized.APIEndpoint = NormalizeEndpoint(config.APIEndpoint)

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithEndpoint creates a new client with just an API endpoint. Requests
// fail with libadmin.ErrUnauthenticated until Login succeeds.
func NewWithEndpoint(ctx context.Context, endpoint string) (libadmin.Client, error) {
	return New(ctx, &libadmin.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithPassword creates a new client and logs in with username and password.
func NewWithPassword(ctx context.Context, endpoint, username, password string) (libadmin.Client, error) {
	return New(ctx, &libadmin.Config{
		APIEndpoint: endpoint,
		Username:    username,
		Password:    password,
	})
}

// BoltSessionStore is a SessionStore persisted in a bbolt file.
type BoltSessionStore = auth.BoltStore

// NewBoltSessionStore opens or creates the session file at path.
func NewBoltSessionStore(path string) (*BoltSessionStore, error) {
	return auth.NewBoltStore(path)
}

// NewMemorySessionStore returns an empty in-memory SessionStore.
func NewMemorySessionStore() libadmin.SessionStore {
	return auth.NewMemoryStore()
}

// NewController creates a resource controller that starts from the client's
// controller options. opts are applied after them.
func NewController[T any](
	c libadmin.Client,
	name string,
	api libadmin.CollectionAPI[T],
	opts ...libadmin.ControllerOption,
) *libadmin.ResourceController[T] {
	all := append(c.ControllerOptions(), opts...)

	return libadmin.NewResourceController(name, api, all...)
}

// NormalizeEndpoint trims trailing slashes and adds a scheme when missing.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}

	if isLocal(endpoint) {
		return "http://" + endpoint
	}

	return "https://" + endpoint
}

func isLocal(endpoint string) bool {
	parsed, err := url.Parse("//" + endpoint)
	if err != nil {
		return false
	}

	host := parsed.Hostname()
	if host == "localhost" {
		return true
	}

	ip := net.ParseIP(host)

	return ip != nil && ip.IsLoopback()
}
