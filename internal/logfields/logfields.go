package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyEventID   = "event_id"
	KeyEventType = "event_type"
	KeyActor     = "actor"
	KeyAction    = "action"
	KeyState     = "state"
	KeySessionID = "session_id"
	KeyURL       = "url"
	KeySubject   = "subject"
	KeyFrames    = "frames"
	KeyDropped   = "dropped"
	KeyError     = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func EventID(id string) slog.Attr    { return slog.String(KeyEventID, id) }
func EventType(t string) slog.Attr   { return slog.String(KeyEventType, t) }
func Actor(id string) slog.Attr      { return slog.String(KeyActor, id) }
func Action(a string) slog.Attr      { return slog.String(KeyAction, a) }
func State(s string) slog.Attr       { return slog.String(KeyState, s) }
func SessionID(id string) slog.Attr  { return slog.String(KeySessionID, id) }
func URL(u string) slog.Attr         { return slog.String(KeyURL, u) }
func Subject(s string) slog.Attr     { return slog.String(KeySubject, s) }
func Frames(n int64) slog.Attr       { return slog.Int64(KeyFrames, n) }
func Dropped(n int64) slog.Attr      { return slog.Int64(KeyDropped, n) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
