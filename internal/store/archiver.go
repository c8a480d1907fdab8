package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
)

const archiveTimeout = 5 * time.Second

// TranscriptWriter is the write side of Store used by Archiver.
type TranscriptWriter interface {
	WriteTurn(ctx context.Context, t ArchivedTurn) error
	WriteThemeSet(ctx context.Context, ts ThemeSet) error
	DeleteTurnsFrom(ctx context.Context, sessionID string, fromSeq int) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// Archiver mirrors session transcripts into Postgres. Write failures are
// logged; the session is never affected.
type Archiver struct {
	w      TranscriptWriter
	logger *slog.Logger
}

func NewArchiver(w TranscriptWriter, logger *slog.Logger) *Archiver {
	return &Archiver{w: w, logger: logger}
}

func (a *Archiver) OnEvent(ctx context.Context, event dialogue.Event) {
	ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
	defer cancel()

	var err error
	switch event.Type {
	case dialogue.EventTurn:
		if event.Turn == nil {
			return
		}
		err = a.w.WriteTurn(ctx, ArchivedTurn{
			SessionID: event.SessionID,
			Seq:       event.Seq,
			Phase:     string(event.Phase),
			Role:      string(event.Turn.Role),
			Content:   event.Turn.Content,
			CreatedAt: event.Timestamp,
		})
	case dialogue.EventThemesFinal:
		err = a.w.WriteThemeSet(ctx, ThemeSet{
			SessionID:    event.SessionID,
			CentralTheme: event.CentralTheme,
			Themes:       event.Themes,
			CreatedAt:    event.Timestamp,
		})
	case dialogue.EventTurnRolledBack:
		err = a.w.DeleteTurnsFrom(ctx, event.SessionID, event.Seq)
	case dialogue.EventSessionReset:
		err = a.w.DeleteSession(ctx, event.SessionID)
	default:
		return
	}

	if err != nil {
		a.logger.Error("failed to archive session event",
			"session_id", event.SessionID,
			"event", event.Type,
			"error", err,
		)
	}
}
