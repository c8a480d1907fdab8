package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetupLogging(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	setupLogging(&buf, "warn")

	slog.Info("filtered")
	slog.Warn("kept", "session_id", "s1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["level"] != "WARN" || entry["session_id"] != "s1" {
		t.Errorf("unexpected entry %v", entry)
	}
}
