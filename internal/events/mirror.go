package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/INF-UCT/code-lens/internal/foundation/errors"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "codelens.events"

// natsPublisher is satisfied by *nats.Conn.
type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// envelope is the JSON shape mirrored to NATS.
type envelope struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Event     `json:"payload"`
}

// NATSMirror copies dequeued events onto NATS subjects named
// "{prefix}.{kind}". Delivery is core NATS (at most once).
type NATSMirror struct {
	nc     natsPublisher
	conn   *nats.Conn
	prefix string
}

// ConnectNATSMirror dials url and returns a mirror publishing under prefix.
func ConnectNATSMirror(url, prefix string) (*NATSMirror, error) {
	nc, err := nats.Connect(url,
		nats.Name("code-lens"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryExternal, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("Event mirror connected to NATS", "url", url, "prefix", subjectPrefix(prefix))
	m := newNATSMirror(nc, prefix)
	m.conn = nc
	return m, nil
}

func newNATSMirror(p natsPublisher, prefix string) *NATSMirror {
	return &NATSMirror{nc: p, prefix: subjectPrefix(prefix)}
}

func subjectPrefix(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return DefaultSubjectPrefix
	}
	return prefix
}

// Subject returns the subject an event of kind is published on.
func (m *NATSMirror) Subject(kind string) string { return m.prefix + "." + kind }

// Mirror implements Mirror.
func (m *NATSMirror) Mirror(_ context.Context, e Event) error {
	data, err := json.Marshal(envelope{Kind: e.Kind(), Timestamp: time.Now().UTC(), Payload: e})
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode event").Build()
	}
	if err := m.nc.Publish(m.Subject(e.Kind()), data); err != nil {
		return errors.WrapError(err, errors.CategoryExternal, "failed to publish event to NATS").
			WithContext("subject", m.Subject(e.Kind())).
			Build()
	}
	return nil
}

// Close drains and closes the underlying connection.
func (m *NATSMirror) Close() {
	if m.conn == nil {
		return
	}
	if err := m.conn.Drain(); err != nil {
		m.conn.Close()
	}
}
