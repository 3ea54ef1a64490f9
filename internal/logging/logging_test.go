package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("quiet", "k", 1)
	l.Warn("loud", "k", 2)
	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	if !strings.Contains(out, "loud") || !strings.Contains(out, "k=2") {
		t.Errorf("warn message missing from %q", out)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, "chatty"); err == nil {
		t.Errorf("New accepted level %q", "chatty")
	}
}
