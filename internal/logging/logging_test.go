package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHandlerJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "warn", "json"))

	logger.Info("dropped")
	logger.Warn("kept", "reservation_id", 7)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected exactly one json record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "kept" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if rec["reservation_id"].(float64) != 7 {
		t.Fatalf("missing attribute: %v", rec)
	}
}
