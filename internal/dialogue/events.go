package dialogue

import (
	"context"
	"time"
)

// EventType identifies what happened in a session.
type EventType string

const (
	EventTurn           EventType = "turn"
	EventPhaseChanged   EventType = "phase.changed"
	EventThemeProposed  EventType = "theme.proposed"
	EventThemesFinal    EventType = "themes.finalized"
	EventSimulation     EventType = "simulation.ready"
	EventTurnRolledBack EventType = "turn.rolled_back"
	EventSessionReset   EventType = "session.reset"
)

// Event is emitted to the display boundary. Only the fields relevant to Type
// are set.
type Event struct {
	Type         EventType `json:"type"`
	SessionID    string    `json:"session_id"`
	Phase        Phase     `json:"phase"`
	Seq          int       `json:"seq"`
	Turn         *Turn     `json:"turn,omitempty"`
	CentralTheme string    `json:"central_theme,omitempty"`
	Themes       []string  `json:"themes,omitempty"`
	Removed      int       `json:"removed,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// EventSink consumes session events. Implementations must not block for long;
// they run on the controller's goroutine.
type EventSink interface {
	OnEvent(ctx context.Context, event Event)
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, event Event)

func (f SinkFunc) OnEvent(ctx context.Context, event Event) { f(ctx, event) }

// MultiSink fans an event out to every sink in order.
type MultiSink []EventSink

func (m MultiSink) OnEvent(ctx context.Context, event Event) {
	for _, s := range m {
		if s != nil {
			s.OnEvent(ctx, event)
		}
	}
}

type noopSink struct{}

func (noopSink) OnEvent(context.Context, Event) {}
