package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	libhttp "github.com/fivetwenty-io/libadmin/internal/http"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh-token"

	// epoch values below this are seconds, above it milliseconds.
	epochMillisCutoff = 100_000_000_000
)

// Authenticator performs the remote login and refresh exchanges.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*libadmin.Session, error)
	Refresh(ctx context.Context, token string) (*libadmin.Session, error)
}

// Service talks to the backend auth endpoints. Every request is sent with
// SkipAuth so the token provider of the shared client is never consulted.
type Service struct {
	client *libhttp.Client
}

// NewService creates a service over client.
func NewService(client *libhttp.Client) *Service {
	return &Service{client: client}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token       string          `json:"token"`
	AccessToken string          `json:"accessToken"`
	ExpiresAt   json.RawMessage `json:"expiresAt"`
	Username    string          `json:"username"`
}

// Login exchanges credentials for a session.
func (s *Service) Login(ctx context.Context, username, password string) (*libadmin.Session, error) {
	if username == "" || password == "" {
		return nil, constants.ErrCredentialsRequired
	}

	resp, err := s.client.Do(ctx, &libhttp.Request{
		Method:   http.MethodPost,
		Path:     loginPath,
		Body:     loginRequest{Username: username, Password: password},
		SkipAuth: true,
		Timeout:  constants.ShortHTTPTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}

	session, err := parseTokenResponse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing login response: %w", err)
	}

	if session.Username == "" {
		session.Username = username
	}

	return session, nil
}

// Refresh exchanges a still valid token for a new one.
func (s *Service) Refresh(ctx context.Context, token string) (*libadmin.Session, error) {
	resp, err := s.client.Do(ctx, &libhttp.Request{
		Method:   http.MethodPost,
		Path:     refreshPath,
		Headers:  map[string]string{"Authorization": "Bearer " + token},
		SkipAuth: true,
		Timeout:  constants.RefreshTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	session, err := parseTokenResponse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing refresh response: %w", err)
	}

	return session, nil
}

func parseTokenResponse(body []byte) (*libadmin.Session, error) {
	var payload tokenResponse

	err := json.Unmarshal(body, &payload)
	if err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	token := payload.Token
	if token == "" {
		token = payload.AccessToken
	}

	if token == "" {
		return nil, constants.ErrEmptyTokenResponse
	}

	expiresAt, err := parseExpiry(payload.ExpiresAt, token)
	if err != nil {
		return nil, err
	}

	return &libadmin.Session{Token: token, ExpiresAt: expiresAt, Username: payload.Username}, nil
}

// parseExpiry accepts epoch numbers, numeric strings and timestamps, and
// falls back to the token's exp claim when the field is missing.
func parseExpiry(raw json.RawMessage, token string) (time.Time, error) {
	value := strings.TrimSpace(string(raw))
	if value == "" || value == "null" {
		expiresAt, err := ExpiryFromJWT(token)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", constants.ErrMissingExpiry, err)
		}

		return expiresAt, nil
	}

	var text string

	err := json.Unmarshal(raw, &text)
	if err != nil {
		text = value
	}

	epoch, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		if epoch < epochMillisCutoff {
			return time.Unix(epoch, 0), nil
		}

		return time.UnixMilli(epoch), nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		parsed, err := time.ParseInLocation(layout, text, time.Local)
		if err == nil {
			return parsed, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized expiresAt %q", constants.ErrMissingExpiry, text)
}
