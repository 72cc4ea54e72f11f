package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/libadmin/internal/auth"
	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// TokenStatus is the rendered view of the stored session.
type TokenStatus struct {
	Username      string    `json:"username,omitempty" yaml:"username,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"         yaml:"expires_at"`
	Remaining     string    `json:"remaining"          yaml:"remaining"`
	Expired       bool      `json:"expired"            yaml:"expired"`
	NeedsRefresh  bool      `json:"needs_refresh"      yaml:"needs_refresh"`
	Token         string    `json:"token"              yaml:"token"`
	Subject       string    `json:"subject,omitempty"  yaml:"subject,omitempty"`
	Role          string    `json:"role,omitempty"     yaml:"role,omitempty"`
	ClaimsExpires time.Time `json:"claims_expires_at"  yaml:"claims_expires_at"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage authentication tokens",
		Long:  "Commands for inspecting and refreshing the stored authentication token",
	}

	cmd.AddCommand(newTokenStatusCommand())
	cmd.AddCommand(newTokenRefreshCommand())

	return cmd
}

func newTokenStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show token status and expiration",
		Long:  "Display the stored session without contacting the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				session, err := client.Session(ctx)
				if err != nil {
					return err
				}

				if session == nil {
					return constants.ErrNotLoggedIn
				}

				status := buildTokenStatus(session, time.Now(),
					durationSetting(keyRefreshThreshold, constants.DefaultRefreshThreshold))

				renderer := OutputRenderer[*TokenStatus]{
					RenderJSON:  StandardJSONRenderer[*TokenStatus],
					RenderYAML:  StandardYAMLRenderer[*TokenStatus],
					RenderTable: renderTokenStatusTable,
				}

				return renderer.Render(cmd.OutOrStdout(), status, viper.GetString(keyOutput))
			})
		},
	}
}

func newTokenRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the authentication token now",
		Long:  "Exchange the stored token for a new one regardless of its remaining lifetime",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				_, err := client.RefreshToken(ctx)
				if err != nil {
					return err
				}

				session, err := client.Session(ctx)
				if err != nil {
					return err
				}

				if session == nil {
					return constants.ErrNotLoggedIn
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token refreshed, valid until %s\n",
					session.ExpiresAt.Local().Format(time.RFC1123))

				return nil
			})
		},
	}
}

func buildTokenStatus(session *libadmin.Session, now time.Time, threshold time.Duration) *TokenStatus {
	remaining := session.Remaining(now)

	status := &TokenStatus{
		Username:     session.Username,
		ExpiresAt:    session.ExpiresAt,
		Remaining:    remaining.Truncate(time.Second).String(),
		Expired:      remaining <= 0,
		NeedsRefresh: remaining < threshold,
		Token:        maskToken(session.Token),
	}

	// Opaque tokens carry no claims; only the stored expiry is shown then.
	claims, err := auth.ParseClaims(session.Token)
	if err == nil {
		status.Subject = claims.Subject
		status.Role = claims.Role
		status.ClaimsExpires = claims.ExpiresAt
	}

	return status
}

const visibleTokenChars = 8

func maskToken(token string) string {
	if len(token) <= visibleTokenChars {
		return constants.MaskedSecret
	}

	return token[:visibleTokenChars] + constants.MaskedSecret
}

func renderTokenStatusTable(w io.Writer, status *TokenStatus) error {
	pairs := [][2]string{
		{"Username", status.Username},
		{"Token", status.Token},
		{"Expires At", status.ExpiresAt.Local().Format(time.RFC1123)},
		{"Remaining", status.Remaining},
		{"Expired", fmt.Sprintf("%t", status.Expired)},
		{"Needs Refresh", fmt.Sprintf("%t", status.NeedsRefresh)},
	}

	if status.Subject != "" {
		pairs = append(pairs, [2]string{"Subject", status.Subject})
	}

	if status.Role != "" {
		pairs = append(pairs, [2]string{"Role", status.Role})
	}

	return renderProperties(w, pairs)
}
