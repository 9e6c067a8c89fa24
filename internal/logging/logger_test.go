package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"showrunner/internal/logging"
	"showrunner/internal/testsupport"
)

func TestNewConsoleWritesKeyValueLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "console",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("tick finished", logging.Int("evaluated", 3), logging.String(logging.FieldComponent, "tick"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "INFO") || !strings.Contains(line, "tick finished") {
		t.Fatalf("unexpected console line: %s", line)
	}
	if !strings.Contains(line, "evaluated=3") || !strings.Contains(line, "component=tick") {
		t.Fatalf("missing attrs in console line: %s", line)
	}
}

func TestNewJSONWritesStructuredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Warn("index refresh failed", logging.String(logging.FieldEventType, "index_refresh_failed"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, data)
	}
	if record["msg"] != "index refresh failed" {
		t.Fatalf("unexpected msg field: %v", record["msg"])
	}
	if record["event_type"] != "index_refresh_failed" {
		t.Fatalf("unexpected event_type field: %v", record["event_type"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered.log")
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "console",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("should be dropped")
	logger.Warn("should appear")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "should be dropped") {
		t.Fatalf("info record leaked past warn level: %s", data)
	}
	if !strings.Contains(string(data), "should appear") {
		t.Fatalf("warn record missing: %s", data)
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	logger.Info("daemon starting")

	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "showrunner.log")); err != nil {
		t.Fatalf("expected log file in log dir: %v", err)
	}
}

func TestNewComponentLoggerTagsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "component.log")
	base, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logging.NewComponentLogger(base, "gate").Info("evaluated")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "component=gate") {
		t.Fatalf("missing component attr: %s", data)
	}
}

func TestNewNopDiscardsEverything(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("discarded", logging.Error(nil))
}
