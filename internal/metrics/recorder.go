package metrics

import "time"

// ConnectOutcome enumerates connection attempt results for counters.
type ConnectOutcome string

const (
	ConnectOpened      ConnectOutcome = "opened"
	ConnectConfigError ConnectOutcome = "config_error"
	ConnectFailed      ConnectOutcome = "failed"
	ConnectNoop        ConnectOutcome = "noop"
)

// EventSource labels where an event entered the pipeline.
type EventSource string

const (
	SourceLive     EventSource = "live"
	SourceInjected EventSource = "injected"
)

// Recorder defines observability hooks for the stream pipeline. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for nil
// receivers when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	IncFrameDecoded()
	IncFrameDropped()
	IncConnectAttempt(outcome ConnectOutcome)
	IncEvent(eventType string, source EventSource)
	SetBufferSize(n int)
	ObserveStreamDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncFrameDecoded()                    {}
func (NoopRecorder) IncFrameDropped()                    {}
func (NoopRecorder) IncConnectAttempt(ConnectOutcome)    {}
func (NoopRecorder) IncEvent(string, EventSource)        {}
func (NoopRecorder) SetBufferSize(int)                   {}
func (NoopRecorder) ObserveStreamDuration(time.Duration) {}
