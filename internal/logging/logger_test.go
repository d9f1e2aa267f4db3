package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, level))

	logger.Info("match decision", slog.Int64("game_id", 12), slog.String("outcome", "queue"))

	out := buf.String()
	for _, want := range []string{"INFO", "match decision", "game_id=12", "outcome=queue"} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q: %s", want, out)
		}
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newConsoleHandler(&buf, new(slog.LevelVar)))

	logger.Warn("upsert", slog.String("title", "Chrono Trigger"))

	if !strings.Contains(buf.String(), `title="Chrono Trigger"`) {
		t.Fatalf("expected quoted attr, got %s", buf.String())
	}
}

func TestConsoleHandlerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, level))

	logger.Info("suppressed")
	logger.Error("kept")

	if strings.Contains(buf.String(), "suppressed") {
		t.Fatal("info record should be suppressed at warn level")
	}
	if !strings.Contains(buf.String(), "kept") {
		t.Fatal("error record missing")
	}
}

func TestJSONHandlerKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, new(slog.LevelVar)))

	logger.Info("run finished", slog.Int("matched", 3))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if record["msg"] != "run finished" {
		t.Fatalf("unexpected msg key: %v", record)
	}
	if record["level"] != "info" {
		t.Fatalf("level not lowercased: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("missing ts key: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
