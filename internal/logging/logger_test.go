package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readEntries(t *testing.T, dir string) []map[string]any {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLoggerCreatesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatalf("log file was not created: %v", err)
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, "warn")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown", "note", "A4")
	logger.Error("shown too")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries := readEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "WARN" || entries[0]["note"] != "A4" {
		t.Fatalf("unexpected entry: %v", entries[0])
	}
}

func TestWithAddsAttributes(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	child := logger.With("component", "engine")
	child.Info("session started", "notes", 10)
	logger.Info("plain")
	if err := child.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	entries := readEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["component"] != "engine" || entries[0]["notes"] != float64(10) {
		t.Fatalf("missing child attributes: %v", entries[0])
	}
	if _, ok := entries[1]["component"]; ok {
		t.Fatalf("parent logger picked up child attributes: %v", entries[1])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.With("k", "v").Error("ignored")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if OrNop(nil) == nil {
		t.Fatalf("expected OrNop to return a logger")
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", " Warn ", "error"} {
		if !IsValidLevel(level) {
			t.Fatalf("expected %q to be valid", level)
		}
	}
	if IsValidLevel("trace") {
		t.Fatalf("expected trace to be invalid")
	}
}
