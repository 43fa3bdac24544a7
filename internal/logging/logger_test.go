package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONWithSessionFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "acadchat.log")

	logger, err := New(path, "main", Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("history loaded")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(string(data))
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if entry["msg"] != "history loaded" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["session"] != "main" {
		t.Errorf("session = %v, want main", entry["session"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("missing ts field")
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acadchat.log")

	logger, err := New(path, "main", Options{Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("quiet")
	_ = logger.Sync()

	data, _ := os.ReadFile(path)
	if len(data) != 0 {
		t.Errorf("info line written at warn level: %q", data)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "x.log"), "main", Options{Level: "loud"})
	if err == nil {
		t.Error("New() expected error for unknown level")
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Error("OrNop(nil) returned nil")
	}
}
