package stream

import (
	"git.home.luguber.info/inful/streamwatch/internal/metrics"
)

// Injector routes pre-built events from outside the live connection (test
// generators, message-bus feeds) through the same append path as the
// connection manager, so statistics and filters treat both origins
// uniformly. Injection works regardless of connection state.
type Injector struct {
	buffer  *Buffer
	rec     metrics.Recorder
	onEvent func(Event)
}

// NewInjector creates an injector writing into buffer. onEvent may be nil.
func NewInjector(buffer *Buffer, rec metrics.Recorder, onEvent func(Event)) *Injector {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Injector{buffer: buffer, rec: rec, onEvent: onEvent}
}

// Inject appends one event to the buffer.
func (i *Injector) Inject(ev Event) {
	i.buffer.Append(ev)
	i.rec.IncEvent(string(ev.Type), metrics.SourceInjected)
	i.rec.SetBufferSize(i.buffer.Len())
	if i.onEvent != nil {
		i.onEvent(ev)
	}
}
