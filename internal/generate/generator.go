// Package generate produces synthetic stream events for demos and tests.
// Generated events go through the external injector path, exercising the
// same buffer and statistics pipeline as live events.
package generate

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/streamwatch/internal/stream"
)

var (
	eventTypes = []stream.EventType{
		stream.EventTypeUserAction,
		stream.EventTypeSystemEvent,
		stream.EventTypeError,
		stream.EventTypeWarning,
	}
	actions   = []string{"click", "view", "purchase", "login", "logout"}
	locations = []string{"homepage", "dashboard", "profile", "settings"}
)

// Generator produces random events drawn from a fixed vocabulary of
// actions, locations and event types, attributed to a small actor pool.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	actors []string
}

// NewGenerator creates a generator with the given actor pool. An empty pool
// gets a default of eight synthetic users. Seed 0 means time-seeded.
func NewGenerator(seed int64, actors []string) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if len(actors) == 0 {
		actors = make([]string, 8)
		for i := range actors {
			actors[i] = fmt.Sprintf("user_%d", i+1)
		}
	}
	return &Generator{
		rng:    rand.New(rand.NewSource(seed)),
		actors: actors,
	}
}

// Next produces one synthetic event. Roughly one event in eight carries no
// actor identity, mirroring system-originated records.
func (g *Generator) Next() stream.Event {
	g.mu.Lock()
	defer g.mu.Unlock()

	ev := stream.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      eventTypes[g.rng.Intn(len(eventTypes))],
		Action:    actions[g.rng.Intn(len(actions))],
		Value:     float64(g.rng.Intn(1000)),
		Location:  locations[g.rng.Intn(len(locations))],
	}
	if g.rng.Intn(8) != 0 {
		ev.ActorID = g.actors[g.rng.Intn(len(g.actors))]
	}
	return ev
}
