package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(&buf, "warn", "text"))
	defer SetDefault(nil)

	Debug("debug %d", 1)
	Info("info %d", 2)
	Warn("warn %d", 3)
	Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("Expected debug and info to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] warn 3") {
		t.Errorf("Expected warn line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] error 4") {
		t.Errorf("Expected error line, got %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "json")
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	SetDefault(l)
	defer SetDefault(nil)

	Info("batch %d of %d", 2, 5)

	var entry map[string]string
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("Expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "info" {
		t.Errorf("Expected level info, got %q", entry["level"])
	}
	if entry["msg"] != "batch 2 of 5" {
		t.Errorf("Unexpected msg: %q", entry["msg"])
	}
	if entry["time"] != "2024-03-01T12:00:00Z" {
		t.Errorf("Unexpected time: %q", entry["time"])
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	SetDefault(nil)
	// Must not panic
	Debug("nothing")
	Error("nothing")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
