package stream

// CriteriaAll matches every event type.
const CriteriaAll = "all"

// Criteria selects the subsequence of a buffer snapshot to present.
// Multiple fields compose as logical AND.
type Criteria struct {
	// EventType is "all" (or empty) or one of the enumerated event types.
	EventType string
	// ActorOnly restricts the view to events originated by ViewerID.
	ActorOnly bool
	// ViewerID is the identity used by ActorOnly.
	ViewerID string
}

// Matches reports whether a single event satisfies the criteria.
func (c Criteria) Matches(ev Event) bool {
	if c.EventType != "" && c.EventType != CriteriaAll && string(ev.Type) != c.EventType {
		return false
	}
	if c.ActorOnly && ev.ActorID != c.ViewerID {
		return false
	}
	return true
}

// Filter returns the events from snapshot that satisfy the criteria, in the
// original order. The snapshot is never mutated; filtering is computed fresh
// on each call.
func Filter(snapshot []Event, c Criteria) []Event {
	out := make([]Event, 0, len(snapshot))
	for _, ev := range snapshot {
		if c.Matches(ev) {
			out = append(out, ev)
		}
	}
	return out
}
