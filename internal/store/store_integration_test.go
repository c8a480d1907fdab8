//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_TranscriptRollback(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := "integration-test-" + uuid.New().String()[:8]
	t.Cleanup(func() {
		s.DeleteSession(ctx, sessionID)
	})

	base := time.Now().UTC()
	for i, content := range []string{"はじめまして", "ようこそ", "教師を目指しています", "素敵ですね"} {
		role := "user"
		if i%2 == 1 {
			role = "coach"
		}
		err := s.WriteTurn(ctx, ArchivedTurn{
			SessionID: sessionID,
			Seq:       i,
			Phase:     "exploration",
			Role:      role,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		})
		if err != nil {
			t.Fatalf("WriteTurn(%d) failed: %v", i, err)
		}
	}

	err := s.WriteThemeSet(ctx, ThemeSet{
		SessionID:    sessionID,
		CentralTheme: "教師を目指すこと",
		Themes:       []string{"知識", "忍耐", "対話", "健康", "好奇心", "仲間", "計画", "感謝"},
		CreatedAt:    base.Add(5 * time.Millisecond),
	})
	if err != nil {
		t.Fatalf("WriteThemeSet failed: %v", err)
	}

	ts, err := s.LatestThemeSet(ctx, sessionID)
	if err != nil {
		t.Fatalf("LatestThemeSet failed: %v", err)
	}
	if ts == nil || len(ts.Themes) != 8 {
		t.Fatalf("expected 8 archived themes, got %+v", ts)
	}

	if err := s.DeleteTurnsFrom(ctx, sessionID, 2); err != nil {
		t.Fatalf("DeleteTurnsFrom failed: %v", err)
	}

	turns, err := s.Transcript(ctx, sessionID)
	if err != nil {
		t.Fatalf("Transcript failed: %v", err)
	}
	if len(turns) != 2 || turns[1].Content != "ようこそ" {
		t.Errorf("expected two surviving turns, got %+v", turns)
	}

	ts, err = s.LatestThemeSet(ctx, sessionID)
	if err != nil {
		t.Fatalf("LatestThemeSet after rollback failed: %v", err)
	}
	if ts != nil {
		t.Errorf("theme set written after the rolled-back turns should be gone, got %+v", ts)
	}

	// A freed sequence number can be written again.
	err = s.WriteTurn(ctx, ArchivedTurn{
		SessionID: sessionID,
		Seq:       2,
		Phase:     "exploration",
		Role:      "user",
		Content:   "やり直します",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("rewrite seq 2 failed: %v", err)
	}
}
