package generate

import (
	"sync/atomic"
	"testing"
	"time"

	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

func TestGeneratorProducesValidEvents(t *testing.T) {
	gen := NewGenerator(1, nil)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		ev := gen.Next()

		if ev.ID == "" {
			t.Fatal("generated event without ID")
		}
		if seen[ev.ID] {
			t.Fatalf("duplicate generated ID %s", ev.ID)
		}
		seen[ev.ID] = true

		if !ev.Type.Known() {
			t.Errorf("generated unknown event type %q", ev.Type)
		}
		if ev.Timestamp.IsZero() {
			t.Error("generated event without timestamp")
		}
		if ev.Value < 0 || ev.Value >= 1000 {
			t.Errorf("value out of range: %v", ev.Value)
		}
	}
}

func TestGeneratorActorPool(t *testing.T) {
	gen := NewGenerator(7, []string{"alice", "bob"})

	actors := make(map[string]int)
	for i := 0; i < 100; i++ {
		actors[gen.Next().ActorID]++
	}

	for actor := range actors {
		switch actor {
		case "alice", "bob", "":
		default:
			t.Fatalf("actor %q outside configured pool", actor)
		}
	}
	if actors["alice"] == 0 || actors["bob"] == 0 {
		t.Fatal("expected both pool actors to appear")
	}
}

func TestScheduleEmits(t *testing.T) {
	gen := NewGenerator(3, nil)
	buf := stream.NewBuffer(10)
	inj := stream.NewInjector(buf, nil, nil)

	var emitted atomic.Int32
	sched, err := NewSchedule(5*time.Millisecond, 10*time.Millisecond, func() {
		inj.Inject(gen.Next())
		emitted.Add(1)
	})
	if err != nil {
		t.Fatalf("failed to create schedule: %v", err)
	}
	sched.Start()
	defer func() { _ = sched.Stop() }()

	deadline := time.Now().Add(2 * time.Second)
	for emitted.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if emitted.Load() < 2 {
		t.Fatal("schedule never emitted events")
	}
	if buf.Len() == 0 {
		t.Fatal("emitted events did not reach the buffer")
	}
}

func TestScheduleRejectsInvalidInterval(t *testing.T) {
	if _, err := NewSchedule(0, time.Second, func() {}); err == nil {
		t.Fatal("expected error for zero min interval")
	}
	if _, err := NewSchedule(time.Second, time.Millisecond, func() {}); err == nil {
		t.Fatal("expected error for max < min")
	}
}
