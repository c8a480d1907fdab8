//go:build integration

package hermes

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
)

func skipWithoutNATS(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set, skipping integration test")
	}
	return url
}

func TestIntegration_EventPublisher(t *testing.T) {
	natsURL := skipWithoutNATS(t)
	ctx := context.Background()
	logger := slog.Default()

	client, err := NewClient(ctx, natsURL, os.Getenv("NATS_TOKEN"), logger)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	received := make(chan dialogue.Event, 1)
	err = client.Subscribe(SessionSubject("integration"), func(subject string, data []byte) {
		var ev dialogue.Event
		json.Unmarshal(data, &ev)
		received <- ev
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// Give subscription time to propagate
	time.Sleep(100 * time.Millisecond)

	pub := NewEventPublisher(client, logger)
	pub.OnEvent(ctx, dialogue.Event{
		Type:         dialogue.EventThemeProposed,
		SessionID:    "integration",
		Phase:        dialogue.PhaseThemeGeneration,
		CentralTheme: "教師になること",
	})

	select {
	case ev := <-received:
		if ev.CentralTheme != "教師になること" {
			t.Errorf("expected central theme, got %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
