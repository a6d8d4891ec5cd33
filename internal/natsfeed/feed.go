// Package natsfeed injects events from a NATS subject into the local
// buffer. It gives the watcher a second live source next to the SSE
// stream, for environments where events ride the message bus instead of
// an HTTP stream.
package natsfeed

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/streamwatch/internal/logfields"
	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

// Feed subscribes to a NATS subject and injects every decodable message
// into the buffer through the injector.
type Feed struct {
	conn     *nats.Conn
	sub      *nats.Subscription
	subject  string
	injector *stream.Injector
}

// New connects to the NATS server and subscribes to the subject.
func New(url, subject string, injector *stream.Injector) (*Feed, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	if injector == nil {
		return nil, fmt.Errorf("injector is required")
	}

	conn, err := nats.Connect(url,
		nats.Name("streamwatch-feed"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	f := &Feed{
		conn:     conn,
		subject:  subject,
		injector: injector,
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		f.handleMessage(msg.Data)
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	f.sub = sub

	slog.Info("NATS feed subscribed",
		logfields.URL(url),
		logfields.Subject(subject))

	return f, nil
}

// handleMessage decodes one message payload and injects the event.
// Undecodable payloads are logged and dropped; the subscription stays up.
func (f *Feed) handleMessage(data []byte) {
	ev, err := stream.Decode(string(data))
	if err != nil {
		slog.Warn("dropping undecodable feed message",
			logfields.Subject(f.subject),
			logfields.Error(err))
		return
	}
	f.injector.Inject(ev)
}

// Close drains the subscription and closes the connection.
func (f *Feed) Close() error {
	if f.sub != nil {
		if err := f.sub.Unsubscribe(); err != nil {
			slog.Warn("failed to unsubscribe NATS feed", logfields.Error(err))
		}
	}
	if f.conn != nil {
		f.conn.Close()
	}
	return nil
}
