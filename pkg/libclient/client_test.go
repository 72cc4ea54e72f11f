package libclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
	"github.com/fivetwenty-io/libadmin/pkg/libclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates client with config", func(t *testing.T) {
		t.Parallel()

		client, err := libclient.New(context.Background(), &libadmin.Config{APIEndpoint: "http://localhost:8080/api"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := libclient.New(context.Background(), nil)
		require.ErrorIs(t, err, libadmin.ErrConfigRequired)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := libclient.NewWithEndpoint(context.Background(), "")
		require.ErrorIs(t, err, libadmin.ErrAPIEndpointRequired)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{input: "http://localhost:8080/api/", expected: "http://localhost:8080/api"},
		{input: "localhost:8080/api", expected: "http://localhost:8080/api"},
		{input: "127.0.0.1:8080/api", expected: "http://127.0.0.1:8080/api"},
		{input: "library.example.com/api", expected: "https://library.example.com/api"},
		{input: " https://library.example.com// ", expected: "https://library.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, libclient.NormalizeEndpoint(tt.input))
		})
	}
}

func TestNewWithPassword_PersistsSession(t *testing.T) {
	t.Parallel()

	var logins atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			logins.Add(1)

			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"token":     "tok",
				"expiresAt": time.Now().Add(24 * time.Hour).UnixMilli(),
			})
		case "/api/admin/info":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

			_ = json.NewEncoder(w).Encode(map[string]string{"username": "admin", "role": "ROLE_ADMIN"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "session.db")

	store, err := libclient.NewBoltSessionStore(path)
	require.NoError(t, err)

	client, err := libclient.New(context.Background(), &libadmin.Config{
		APIEndpoint:  server.URL + "/api/",
		Username:     "admin",
		Password:     "secret",
		SessionStore: store,
	})
	require.NoError(t, err)

	info, err := client.Admin().Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, libadmin.RoleAdmin, info.Role)
	assert.True(t, info.Role.Can(libadmin.CapDeleteRecords))
	require.NoError(t, store.Close())

	reopened, err := libclient.NewBoltSessionStore(path)
	require.NoError(t, err)

	defer func() { _ = reopened.Close() }()

	_, err = libclient.New(context.Background(), &libadmin.Config{
		APIEndpoint:  server.URL + "/api",
		Username:     "admin",
		Password:     "secret",
		SessionStore: reopened,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), logins.Load(), "a stored session skips the login")
}

func TestNewController(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories", r.URL.Path)

		_ = json.NewEncoder(w).Encode([]libadmin.Category{
			{ID: 1, Code: "IT", Name: "Computing"},
			{ID: 2, Code: "HIS", Name: "History"},
		})
	}))
	defer server.Close()

	store := libclient.NewMemorySessionStore()
	require.NoError(t, store.Set(context.Background(), libadmin.Session{
		Token:     "tok",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}))

	client, err := libclient.New(context.Background(), &libadmin.Config{
		APIEndpoint:  server.URL,
		SessionStore: store,
	})
	require.NoError(t, err)

	controller := libclient.NewController(client, "categories", client.Categories(),
		libadmin.WithInitialQuery(libadmin.Query{Page: 0, Size: 1}),
	)

	page, err := controller.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalElements)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "IT", page.Content[0].Code)
	assert.Equal(t, libadmin.StatusLoaded, controller.State().Status)
}
