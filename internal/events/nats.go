package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/libadmin/internal/constants"
	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// NATSConfig configures the NATS notifier.
type NATSConfig struct {
	// URL of the NATS server, e.g. "nats://localhost:4222".
	URL string

	// SubjectPrefix is prepended to "<collection>.<op>". Defaults to "libadmin.mutations".
	SubjectPrefix string

	// Name identifies the connection on the server.
	Name string

	// Timeout bounds connecting and each flush. Defaults to 5s.
	Timeout time.Duration
}

// publisher is the part of *nats.Conn the notifier uses.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSNotifier publishes mutation events as JSON to
// <prefix>.<collection>.<op>, e.g. "libadmin.mutations.books.create".
type NATSNotifier struct {
	conn    publisher
	prefix  string
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewNATSNotifier connects to NATS and returns a notifier.
func NewNATSNotifier(config *NATSConfig) (*NATSNotifier, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSConfigRequired
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = constants.NATSConnectTimeout
	}

	opts := []nats.Option{nats.Timeout(timeout)}
	if config.Name != "" {
		opts = append(opts, nats.Name(config.Name))
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", config.URL, err)
	}

	return newNATSNotifier(conn, config.SubjectPrefix, timeout), nil
}

func newNATSNotifier(conn publisher, prefix string, timeout time.Duration) *NATSNotifier {
	if prefix == "" {
		prefix = constants.DefaultEventSubjectPrefix
	}

	return &NATSNotifier{
		conn:    conn,
		prefix:  strings.TrimSuffix(prefix, "."),
		timeout: timeout,
	}
}

// Subject returns the subject an event is published to.
func (n *NATSNotifier) Subject(event libadmin.MutationEvent) string {
	return n.prefix + "." + subjectToken(event.Collection) + "." + subjectToken(string(event.Op))
}

// Notify publishes the event and waits until the server has received it.
func (n *NATSNotifier) Notify(ctx context.Context, event libadmin.MutationEvent) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return ErrNotifierClosed
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	subject := n.Subject(event)

	err = n.conn.Publish(subject, data)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err = n.conn.FlushWithContext(flushCtx)
	if err != nil {
		return fmt.Errorf("flushing %s: %w", subject, err)
	}

	return nil
}

// Close drains the connection. Later calls to Notify fail with ErrNotifierClosed.
func (n *NATSNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true

	err := n.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

// subjectToken keeps collection and op names from splitting the subject.
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}

	return strings.Map(func(r rune) rune {
		switch r {
		case '.', ' ', '*', '>':
			return '_'
		default:
			return r
		}
	}, s)
}
