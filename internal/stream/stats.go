package stream

import (
	"time"
)

// RateWindow is the trailing window used for the events-per-second estimate.
// A window rate smooths bursty arrivals compared to an instantaneous rate.
const RateWindow = 60 * time.Second

// Stats holds the rolling metrics derived from a buffer snapshot. Stats are
// recomputed in full on every mutation; with a bounded window there is no
// need for incremental aggregation.
type Stats struct {
	TotalEvents      int     `json:"totalEvents"`
	EventsPerSecond  float64 `json:"eventsPerSecond"`
	ActiveActors     int     `json:"activeActors"`
	ErrorRatePercent float64 `json:"errorRatePercent"`
}

// ComputeStats derives rolling statistics from a snapshot at the given
// instant. It is a pure function: idempotent, and order-independent apart
// from the recency window on the rate estimate.
//
// Events without an actor ID do not contribute to ActiveActors; there is no
// synthetic "unknown" bucket.
func ComputeStats(snapshot []Event, now time.Time) Stats {
	s := Stats{TotalEvents: len(snapshot)}
	if len(snapshot) == 0 {
		return s
	}

	actors := make(map[string]struct{})
	recent := 0
	errors := 0
	for _, ev := range snapshot {
		if ev.HasActor() {
			actors[ev.ActorID] = struct{}{}
		}
		if ev.IsError() {
			errors++
		}
		if !ev.Timestamp.IsZero() && now.Sub(ev.Timestamp) < RateWindow {
			recent++
		}
	}

	s.ActiveActors = len(actors)
	s.EventsPerSecond = float64(recent) / RateWindow.Seconds()
	s.ErrorRatePercent = 100 * float64(errors) / float64(len(snapshot))
	return s
}
