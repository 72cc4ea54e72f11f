package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	internalhttp "github.com/fivetwenty-io/libadmin/internal/http"
)

// NewTestClient creates a client without a token provider for the given base URL.
func NewTestClient(baseURL string) *Client {
	httpClient := internalhttp.NewClient(baseURL, nil)

	client := &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
	}

	client.initializeResourceClients()

	return client
}

// RecordedRequest is what a test server saw.
type RecordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]interface{}
}

// NewRecordingServer starts a server that answers every request with status
// and the JSON encoding of response, recording requests into seen.
func NewRecordingServer(t *testing.T, status int, response interface{}, seen *[]RecordedRequest) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded := RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
		}

		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&recorded.Body)
		}

		if seen != nil {
			*seen = append(*seen, recorded)
		}

		if response == nil {
			w.WriteHeader(status)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		switch body := response.(type) {
		case string:
			_, _ = w.Write([]byte(body))
		default:
			_ = json.NewEncoder(w).Encode(body)
		}
	}))

	t.Cleanup(server.Close)

	return server
}
