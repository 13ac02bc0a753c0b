package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithOptionsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Level: "warn", Writer: &buf})

	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("shown", "session_id", "s1")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record["session_id"] != "s1" {
		t.Fatalf("expected session_id attr, got %v", record)
	}
}

func TestNewWithOptionsScrub(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{
		Writer:    &buf,
		Scrub:     func(s string) string { return strings.ReplaceAll(s, "secret", "[REDACTED]") },
		ScrubKeys: []string{"message"},
	})

	logger.Info("inbound", "message", "my secret", "other", "secret")
	out := buf.String()
	if !strings.Contains(out, `"message":"my [REDACTED]"`) {
		t.Fatalf("expected message attr scrubbed, got %s", out)
	}
	if !strings.Contains(out, `"other":"secret"`) {
		t.Fatalf("expected other attr untouched, got %s", out)
	}
}

func TestWithKeepsAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOptions(Options{Writer: &buf}).With("component", "engine")
	logger.Info("hello")
	if !strings.Contains(buf.String(), `"component":"engine"`) {
		t.Fatalf("expected component attr, got %s", buf.String())
	}
}
