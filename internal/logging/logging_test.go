package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelDebug)

	logger.Info("extraction complete", "file", "src/App.java", "segments", 3)

	line := buf.String()
	if !strings.Contains(line, "[info] extraction complete") {
		t.Errorf("missing level/message: %q", line)
	}
	if !strings.Contains(line, "file=src/App.java") || !strings.Contains(line, "segments=3") {
		t.Errorf("missing attrs: %q", line)
	}
	if !strings.Contains(line, " |") {
		t.Errorf("missing attr separator: %q", line)
	}
}

func TestHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Debug("dropped")
	logger.Info("also dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("below-level records were written: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).WithGroup("budget")

	logger.Info("shrunk", "tier", 2)

	if !strings.Contains(buf.String(), "budget.tier=2") {
		t.Errorf("group prefix missing: %q", buf.String())
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFromString(tt.in); got != tt.want {
			t.Errorf("LevelFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	// Must not panic and must swallow everything.
	logger.Error("nothing to see")
}
