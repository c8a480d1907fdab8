package hermes

import (
	"context"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
)

// SubjectPrefix roots every session event subject.
const SubjectPrefix = "coach.session"

// SubjectAll matches every session event.
const SubjectAll = SubjectPrefix + ".>"

// Publisher is the subset of Client the event publisher needs.
type Publisher interface {
	Publish(subject string, data any) error
}

// EventPublisher forwards dialogue events to NATS. Publish failures are
// logged and never affect the session.
type EventPublisher struct {
	pub    Publisher
	logger *slog.Logger
}

func NewEventPublisher(pub Publisher, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{pub: pub, logger: logger}
}

func (p *EventPublisher) OnEvent(_ context.Context, event dialogue.Event) {
	subject := EventSubject(event.SessionID, event.Type)
	if err := p.pub.Publish(subject, event); err != nil {
		p.logger.Warn("failed to publish session event",
			"subject", subject,
			"session_id", event.SessionID,
			"error", err,
		)
	}
}

// EventSubject returns coach.session.<id>.<event type>. Characters that are
// not legal inside a subject token are replaced in the id.
func EventSubject(sessionID string, t dialogue.EventType) string {
	return SubjectPrefix + "." + subjectToken(sessionID) + "." + string(t)
}

// SessionSubject matches every event of one session.
func SessionSubject(sessionID string) string {
	return SubjectPrefix + "." + subjectToken(sessionID) + ".>"
}

func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
