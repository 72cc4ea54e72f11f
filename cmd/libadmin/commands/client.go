package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/internal/events"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
	"github.com/fivetwenty-io/libadmin/pkg/libclient"
)

// clientHandle is a client together with the resources it keeps open.
type clientHandle struct {
	client   libadmin.Client
	store    *libclient.BoltSessionStore
	notifier *events.Fanout
	logger   libadmin.Logger
}

// Close releases the session file and drains event connections.
func (h *clientHandle) Close() error {
	var errs []error

	if h.notifier != nil {
		errs = append(errs, h.notifier.Close())
	}

	if h.store != nil {
		errs = append(errs, h.store.Close())
	}

	return errors.Join(errs...)
}

// sessionFilePath returns the configured session database, defaulting to
// ~/.libadmin/session.db.
func sessionFilePath() (string, error) {
	path := viper.GetString(keySessionFile)
	if path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, constants.ConfigDirName, constants.SessionFileName), nil
}

// durationSetting reads a duration key, falling back when it is unset or invalid.
func durationSetting(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	if raw == "" {
		return fallback
	}

	d, err := parsePositiveDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// pageSizeSetting returns the configured page size within bounds.
func pageSizeSetting() int {
	size := viper.GetInt(keyPageSize)
	if size <= 0 {
		return constants.DefaultPageSize
	}

	return min(size, constants.MaxPageSize)
}

func newLogger(w io.Writer) libadmin.Logger {
	level := slog.LevelWarn
	if viper.GetBool(keyVerbose) {
		level = slog.LevelDebug
	}

	return libadmin.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// newNotifier builds the mutation event sinks: NATS when nats_url is set and
// a log sink when verbose.
func newNotifier(logger libadmin.Logger) (*events.Fanout, error) {
	var notifiers []libadmin.Notifier

	if viper.GetBool(keyVerbose) {
		notifier, err := events.NewNotifierFromConfig(&events.NotifierConfig{
			Type:   events.NotifierTypeLog,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating log notifier: %w", err)
		}

		notifiers = append(notifiers, notifier)
	}

	if natsURL := viper.GetString(keyNATSURL); natsURL != "" {
		notifier, err := events.NewNotifierFromConfig(&events.NotifierConfig{
			Type: events.NotifierTypeNATS,
			NATS: &events.NATSConfig{
				URL:  natsURL,
				Name: "libadmin-cli",
			},
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating NATS notifier: %w", err)
		}

		notifiers = append(notifiers, notifier)
	}

	return events.NewFanout(notifiers...), nil
}

// openClient creates a client from the current configuration. When username
// and password are set and no session is stored, the client logs in first.
func openClient(ctx context.Context, cmd *cobra.Command, username, password string) (*clientHandle, error) {
	endpoint := viper.GetString(keyAPI)
	if endpoint == "" {
		return nil, constants.ErrNoAPIEndpoint
	}

	path, err := sessionFilePath()
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	store, err := libclient.NewBoltSessionStore(path)
	if err != nil {
		return nil, err
	}

	handle := &clientHandle{
		store:  store,
		logger: newLogger(cmd.ErrOrStderr()),
	}

	handle.notifier, err = newNotifier(handle.logger)
	if err != nil {
		_ = handle.Close()

		return nil, err
	}

	interceptors := libadmin.NewInterceptorChain()
	interceptors.AddRequestInterceptor(libadmin.RequestIDInterceptor())

	handle.client, err = libclient.New(ctx, &libadmin.Config{
		APIEndpoint:      endpoint,
		Username:         username,
		Password:         password,
		SessionStore:     store,
		RefreshThreshold: durationSetting(keyRefreshThreshold, constants.DefaultRefreshThreshold),
		HTTPTimeout:      durationSetting(keyTimeout, constants.DefaultHTTPTimeout),
		Debug:            viper.GetBool(keyVerbose),
		Logger:           handle.logger,
		Interceptors:     interceptors,
		Notifier:         handle.notifier,
	})
	if err != nil {
		_ = handle.Close()

		return nil, err
	}

	return handle, nil
}

// runWithClient runs fn with a client built from configuration. An
// authentication failure wipes the stored session so the next command asks
// for a fresh login.
func runWithClient(cmd *cobra.Command, fn func(ctx context.Context, client libadmin.Client) error) error {
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

	err = fn(ctx, handle.client)
	if err != nil && libadmin.IsAuthFailure(err) {
		clearErr := handle.store.Clear(ctx)
		if clearErr != nil {
			handle.logger.Warn("failed to clear session", map[string]interface{}{"error": clearErr.Error()})
		}

		return fmt.Errorf("%w: %w", constants.ErrNotLoggedIn, err)
	}

	return err
}

// requireCapability fails unless the signed in role grants capability.
func requireCapability(ctx context.Context, client libadmin.Client, capability libadmin.Capability) error {
	info, err := client.Admin().Info(ctx)
	if err != nil {
		return fmt.Errorf("checking role: %w", err)
	}

	if !info.Role.Can(capability) {
		return fmt.Errorf("%w: role %s lacks %s", constants.ErrPermissionDenied, info.Role, capability)
	}

	return nil
}
