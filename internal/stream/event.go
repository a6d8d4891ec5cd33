package stream

import (
	"time"
)

// EventType classifies a stream event. The enumeration is closed on the
// server side, but unrecognized values still arrive from older emitters and
// are preserved for display.
type EventType string

const (
	EventTypeUserAction  EventType = "USER_ACTION"
	EventTypeSystemEvent EventType = "SYSTEM_EVENT"
	EventTypeError       EventType = "ERROR"
	EventTypeWarning     EventType = "WARNING"
)

// Known reports whether the event type is one of the enumerated values.
func (t EventType) Known() bool {
	switch t {
	case EventTypeUserAction, EventTypeSystemEvent, EventTypeError, EventTypeWarning:
		return true
	}
	return false
}

// Severity maps an event type to a display class. Unknown types fall into
// the neutral bucket rather than failing classification.
func (t EventType) Severity() string {
	switch t {
	case EventTypeError:
		return "error"
	case EventTypeWarning:
		return "warning"
	case EventTypeUserAction:
		return "info"
	case EventTypeSystemEvent:
		return "system"
	default:
		return "unknown"
	}
}

// Event is one decoded occurrence record from the stream. Instances are
// treated as immutable once appended to a buffer.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"eventType"`
	Action    string    `json:"action"`
	Value     float64   `json:"value"`
	Location  string    `json:"location"`
	ActorID   string    `json:"userId,omitempty"`
}

// HasActor reports whether the event carries an originating actor identity.
// Events without one never contribute to distinct-actor counts.
func (e Event) HasActor() bool {
	return e.ActorID != ""
}

// IsError reports whether the event counts toward the error rate.
func (e Event) IsError() bool {
	return e.Type == EventTypeError
}
