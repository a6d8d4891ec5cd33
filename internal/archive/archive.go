// Package archive persists stream events per watch session. Persistence is
// a port on the edge of the pipeline: the core buffer and statistics never
// call it, the shell tees events in through the manager/injector observer
// hooks.
package archive

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/streamwatch/internal/logfields"
	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

// Sink defines the interface for persisting and retrieving session events.
type Sink interface {
	// Record appends one event under the given session.
	Record(ctx context.Context, sessionID string, ev stream.Event) error

	// BySession retrieves all events recorded for a session, oldest first.
	BySession(ctx context.Context, sessionID string) ([]stream.Event, error)

	// Close closes the sink and releases resources.
	Close() error
}

// Tee adapts a sink into an event observer hook. Persistence failures are
// logged and swallowed; the live pipeline must not stall on a slow or broken
// archive.
func Tee(sink Sink, sessionID string) func(stream.Event) {
	return func(ev stream.Event) {
		if err := sink.Record(context.Background(), sessionID, ev); err != nil {
			slog.Warn("failed to archive event",
				logfields.SessionID(sessionID),
				logfields.EventID(ev.ID),
				logfields.Error(err))
		}
	}
}
