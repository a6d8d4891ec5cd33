package natsfeed

import (
	"testing"

	"git.home.luguber.info/inful/streamwatch/internal/metrics"
	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

func TestHandleMessageInjectsDecodedEvent(t *testing.T) {
	buf := stream.NewBuffer(10)
	f := &Feed{
		subject:  "streamwatch.events",
		injector: stream.NewInjector(buf, metrics.NoopRecorder{}, nil),
	}

	f.handleMessage([]byte(`{"id":"n-1","eventType":"SYSTEM_EVENT","action":"deploy","value":1,"location":"dashboard","userId":"user-3"}`))

	if buf.Len() != 1 {
		t.Fatalf("expected 1 event in buffer, got %d", buf.Len())
	}
	ev := buf.Snapshot()[0]
	if ev.ID != "n-1" || ev.Type != stream.EventTypeSystemEvent || ev.ActorID != "user-3" {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestHandleMessageDropsGarbage(t *testing.T) {
	buf := stream.NewBuffer(10)
	f := &Feed{
		subject:  "streamwatch.events",
		injector: stream.NewInjector(buf, metrics.NoopRecorder{}, nil),
	}

	f.handleMessage([]byte("not json at all"))
	f.handleMessage(nil)

	if buf.Len() != 0 {
		t.Fatalf("garbage must not reach the buffer, got %d events", buf.Len())
	}
}

func TestHandleMessageToleratesSSEFraming(t *testing.T) {
	buf := stream.NewBuffer(10)
	f := &Feed{
		subject:  "streamwatch.events",
		injector: stream.NewInjector(buf, metrics.NoopRecorder{}, nil),
	}

	// Republished SSE frames keep their "data:" prefix; the decoder strips it.
	f.handleMessage([]byte(`data: {"id":"n-2","eventType":"WARNING","action":"slowdown"}`))

	if buf.Len() != 1 {
		t.Fatalf("expected 1 event, got %d", buf.Len())
	}
	if got := buf.Snapshot()[0]; got.ID != "n-2" || got.Type != stream.EventTypeWarning {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestNewRejectsMissingArguments(t *testing.T) {
	inj := stream.NewInjector(stream.NewBuffer(1), metrics.NoopRecorder{}, nil)

	if _, err := New("", "subject", inj); err == nil {
		t.Error("expected error for empty URL")
	}
	if _, err := New("nats://localhost:4222", "", inj); err == nil {
		t.Error("expected error for empty subject")
	}
	if _, err := New("nats://localhost:4222", "subject", nil); err == nil {
		t.Error("expected error for nil injector")
	}
}
