package stream

import (
	"errors"
	"fmt"
)

// DecodeError reports a frame that could not be turned into an Event. The
// frame is dropped and the connection stays alive; callers only log it.
type DecodeError struct {
	Raw   string
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ConnectionError reports a transport-level failure. It is surfaced through
// the manager's state transition to Closed and kept as the last error; it is
// never propagated as a panic or crash.
type ConnectionError struct {
	Stage string // "connect", "read", "ping"
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Stage, e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// ConfigurationError reports missing or invalid connection parameters,
// detected at Connect time before any transport work happens.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("stream configuration: %s is required", e.Field)
}

// IsDecodeError reports whether err is (or wraps) a DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
