package api

import (
	"context"
	"sync"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
)

type collectorKey struct{}

// collector gathers the events emitted while one request drives a session.
type collector struct {
	mu     sync.Mutex
	events []dialogue.Event
}

func (c *collector) add(e dialogue.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *collector) list() []dialogue.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]dialogue.Event, len(c.events))
	copy(out, c.events)
	return out
}

func withCollector(ctx context.Context) (context.Context, *collector) {
	c := &collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}

// collectSink routes events to the collector carried by the emitting context.
type collectSink struct{}

func (collectSink) OnEvent(ctx context.Context, e dialogue.Event) {
	if c, ok := ctx.Value(collectorKey{}).(*collector); ok {
		c.add(e)
	}
}
