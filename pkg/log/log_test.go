package log

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestTestLoggerCapturesOutput(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Info("EM iteration finished", IterationKey, 3, LogLikKey, -120.5)
	logger.Debug("detail")

	out := buffer.String()
	if !strings.Contains(out, "INFO: EM iteration finished") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "opt.iteration=3") {
		t.Errorf("missing field in %q", out)
	}
	if !strings.Contains(out, "DEBUG: detail") {
		t.Errorf("missing debug line in %q", out)
	}
}

func TestTestLoggerLevelFiltering(t *testing.T) {
	logger, buffer := NewTestLogger(LevelWarn)

	logger.Info("should be dropped")
	logger.Warn("kept")

	out := buffer.String()
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info message leaked through warn-level logger: %q", out)
	}
	if !strings.Contains(out, "WARN: kept") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestTestLoggerWith(t *testing.T) {
	logger, buffer := NewTestLogger(LevelInfo)
	child := logger.With(ModelNameKey, "Foehnix")

	child.Info("fit started")

	if !strings.Contains(buffer.String(), "model.name=Foehnix") {
		t.Errorf("missing contextual field: %q", buffer.String())
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(&buf, LevelInfo)

	logger.Info("fit finished", ConvergedKey, true)
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "fit finished") {
		t.Errorf("missing message in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked: %q", out)
	}
	if !logger.Enabled(context.Background(), LevelWarn) {
		t.Error("warn should be enabled at info level")
	}
	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
}

func TestNopLoggerSilent(t *testing.T) {
	logger := NewNop()
	// Must not panic and must report everything disabled.
	logger.Info("dropped")
	if logger.Enabled(context.Background(), LevelError) {
		t.Error("nop logger should not be enabled at any level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
