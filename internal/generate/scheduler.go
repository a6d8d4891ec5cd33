package generate

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Schedule emits generated events at randomized intervals, the cadence the
// production stream shows under light load.
type Schedule struct {
	scheduler gocron.Scheduler
}

// NewSchedule creates a schedule that calls emit at a random interval
// between min and max. The schedule does not run until Start is called.
func NewSchedule(min, max time.Duration, emit func()) (*Schedule, error) {
	if min <= 0 || max < min {
		return nil, fmt.Errorf("invalid generation interval: min=%s max=%s", min, max)
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationRandomJob(min, max),
		gocron.NewTask(emit),
		gocron.WithName("event-generator"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create generator job: %w", err)
	}

	return &Schedule{scheduler: s}, nil
}

// Start begins emitting events.
func (s *Schedule) Start() {
	slog.Info("starting event generator schedule")
	s.scheduler.Start()
}

// Stop gracefully shuts down the schedule.
func (s *Schedule) Stop() error {
	slog.Info("stopping event generator schedule")
	return s.scheduler.Shutdown()
}
