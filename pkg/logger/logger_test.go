package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func reset() {
	SetOutput(os.Stderr)
	SetLevel("info")
}

func TestInfoCFIncludesComponentAndFields(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("info")

	InfoCF("api.chat", "dispatching chat request", map[string]interface{}{
		"provider": "Anthropic",
		"count":    3,
	})

	line := buf.String()
	if !strings.Contains(line, "[api.chat]") {
		t.Errorf("expected component in output, got %q", line)
	}
	if !strings.Contains(line, "dispatching chat request") {
		t.Errorf("expected message in output, got %q", line)
	}
	if !strings.Contains(line, `"provider":"Anthropic"`) {
		t.Errorf("expected fields JSON in output, got %q", line)
	}
}

func TestLevelFiltering(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("warn")

	InfoCF("test", "should be dropped", nil)
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	WarnCF("test", "should appear", nil)
	if !strings.Contains(buf.String(), "should appear") {
		t.Errorf("warn should pass at warn level, got %q", buf.String())
	}
}

func TestUnknownLevelLeavesCurrent(t *testing.T) {
	defer reset()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel("info")
	SetLevel("nonsense")

	InfoCF("test", "still info", nil)
	if !strings.Contains(buf.String(), "still info") {
		t.Errorf("unknown level name should not change filtering, got %q", buf.String())
	}
}
