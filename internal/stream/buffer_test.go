package stream

import (
	"fmt"
	"testing"
)

func TestBufferCapacityInvariant(t *testing.T) {
	buf := NewBuffer(5)

	for i := 0; i < 12; i++ {
		buf.Append(Event{ID: fmt.Sprintf("ev-%d", i)})
		if buf.Len() > 5 {
			t.Fatalf("buffer exceeded capacity: %d", buf.Len())
		}
	}

	snap := buf.Snapshot()
	if len(snap) != 5 {
		t.Fatalf("expected 5 retained events, got %d", len(snap))
	}
	// Newest first: the last five appended were ev-7..ev-11.
	for i, ev := range snap {
		want := fmt.Sprintf("ev-%d", 11-i)
		if ev.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, ev.ID)
		}
	}
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	buf := NewBuffer(3)
	buf.Append(Event{ID: "a"})
	snap := buf.Snapshot()

	buf.Append(Event{ID: "b"})
	if len(snap) != 1 || snap[0].ID != "a" {
		t.Fatal("snapshot mutated by later append")
	}
}

func TestBufferClear(t *testing.T) {
	buf := NewBuffer(4)
	for i := 0; i < 4; i++ {
		buf.Append(Event{ID: fmt.Sprintf("ev-%d", i)})
	}

	buf.Clear()
	if buf.Len() != 0 {
		t.Fatalf("expected empty buffer after clear, got %d", buf.Len())
	}
	if got := buf.Snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot after clear, got %d entries", len(got))
	}

	// Appends after clear start a fresh window.
	buf.Append(Event{ID: "fresh"})
	snap := buf.Snapshot()
	if len(snap) != 1 || snap[0].ID != "fresh" {
		t.Fatalf("unexpected snapshot after clear+append: %v", snap)
	}
}

func TestBufferMutationHook(t *testing.T) {
	buf := NewBuffer(2)
	calls := 0
	buf.OnMutate(func() { calls++ })

	buf.Append(Event{ID: "a"})
	buf.Append(Event{ID: "b"})
	buf.Clear()

	if calls != 3 {
		t.Fatalf("expected 3 mutation callbacks, got %d", calls)
	}
}

func TestBufferDuplicateIDsTolerated(t *testing.T) {
	buf := NewBuffer(10)
	buf.Append(Event{ID: "same"})
	buf.Append(Event{ID: "same"})

	if buf.Len() != 2 {
		t.Fatalf("expected duplicates to be distinct entries, got %d", buf.Len())
	}
}

func TestBufferDefaultCapacity(t *testing.T) {
	buf := NewBuffer(0)
	if buf.Capacity() != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, buf.Capacity())
	}
}
