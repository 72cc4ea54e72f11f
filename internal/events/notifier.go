// Package events delivers mutation events emitted by resource controllers.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// NotifierType represents the type of event sink.
type NotifierType string

const (
	// NotifierTypeNATS publishes events to a NATS subject.
	NotifierTypeNATS NotifierType = "nats"

	// NotifierTypeLog writes events to a logger.
	NotifierTypeLog NotifierType = "log"

	// NotifierTypeNone drops events.
	NotifierTypeNone NotifierType = "none"
)

// Static errors for err113 compliance.
var (
	ErrNATSConfigRequired      = errors.New("NATS configuration required for NATS notifier")
	ErrUnsupportedNotifierType = errors.New("unsupported notifier type")
	ErrNotifierClosed          = errors.New("notifier closed")
)

// NotifierConfig configures an event sink.
type NotifierConfig struct {
	Type NotifierType

	// NATS settings, required for NotifierTypeNATS.
	NATS *NATSConfig

	// Logger receives events for NotifierTypeLog and delivery warnings otherwise.
	Logger libadmin.Logger
}

// Closer is implemented by notifiers holding a connection.
type Closer interface {
	Close() error
}

// NewNotifierFromConfig creates a notifier from configuration. A nil config
// yields a notifier that drops everything.
func NewNotifierFromConfig(config *NotifierConfig) (libadmin.Notifier, error) {
	if config == nil {
		return NewNoOpNotifier(), nil
	}

	switch config.Type {
	case NotifierTypeNone, "":
		return NewNoOpNotifier(), nil

	case NotifierTypeLog:
		return NewLogNotifier(config.Logger), nil

	case NotifierTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSNotifier(config.NATS)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedNotifierType, config.Type)
	}
}

// NoOpNotifier drops every event.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new no-op notifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Notify does nothing.
func (n *NoOpNotifier) Notify(context.Context, libadmin.MutationEvent) error {
	return nil
}

// LogNotifier writes every event to a logger at info level.
type LogNotifier struct {
	logger libadmin.Logger
}

// NewLogNotifier creates a notifier over logger. A nil logger drops events.
func NewLogNotifier(logger libadmin.Logger) *LogNotifier {
	if logger == nil {
		logger = libadmin.NopLogger{}
	}

	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(_ context.Context, event libadmin.MutationEvent) error {
	n.logger.Info("mutation", map[string]interface{}{
		"collection": event.Collection,
		"op":         string(event.Op),
		"id":         event.ID,
		"username":   event.Username,
		"at":         event.At,
	})

	return nil
}

// Fanout delivers each event to several notifiers.
type Fanout struct {
	notifiers []libadmin.Notifier
}

// NewFanout creates a fanout over notifiers.
func NewFanout(notifiers ...libadmin.Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

// Notify delivers to every notifier and returns the joined failures.
func (f *Fanout) Notify(ctx context.Context, event libadmin.MutationEvent) error {
	var errs []error

	for _, notifier := range f.notifiers {
		err := notifier.Notify(ctx, event)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Close closes every notifier that holds a connection.
func (f *Fanout) Close() error {
	var errs []error

	for _, notifier := range f.notifiers {
		if closer, ok := notifier.(Closer); ok {
			err := closer.Close()
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	return errors.Join(errs...)
}
