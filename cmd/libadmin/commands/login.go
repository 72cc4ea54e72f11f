package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the library backend",
		Long:  "Authenticate with username and password and store the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error

			reader := bufio.NewReader(cmd.InOrStdin())

			if username == "" {
				username, err = promptLine(reader, cmd.OutOrStdout(), "Username: ")
				if err != nil {
					return err
				}
			}

			if password == "" {
				password, err = promptPassword(cmd.InOrStdin(), reader, cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}

			if username == "" || password == "" {
				return constants.ErrCredentialsRequired
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			handle, err := openClient(ctx, cmd, "", "")
			if err != nil {
				return err
			}

			defer func() {
				_ = handle.Close()
			}()

			session, err := handle.client.Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (token valid until %s)\n",
				session.Username, session.ExpiresAt.Local().Format(time.RFC1123))

			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		Long:  "Remove the stored token and username",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithClient(cmd, func(ctx context.Context, client libadmin.Client) error {
				err := client.Logout(ctx)
				if err != nil {
					return fmt.Errorf("logout failed: %w", err)
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out")

				return nil
			})
		},
	}
}

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	_, _ = fmt.Fprint(out, prompt)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(in io.Reader, reader *bufio.Reader, out io.Writer) (string, error) {
	file, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return promptLine(reader, out, "Password: ")
	}

	_, _ = fmt.Fprint(out, "Password: ")

	bytePassword, err := term.ReadPassword(int(file.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprintln(out)

	return string(bytePassword), nil
}
