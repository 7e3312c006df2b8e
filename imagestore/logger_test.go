package imagestore

import (
	"bytes"
	"strings"
	"testing"
)

func TestDefaultLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(LogLevelWarning, &buf)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Warning("warn %d", 3)
	logger.Error("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Fatalf("messages above the level were printed: %q", out)
	}
	if !strings.Contains(out, "[WARNING] warn 3") || !strings.Contains(out, "[ERROR] error 4") {
		t.Fatalf("expected warning and error lines, got %q", out)
	}

	logger.SetLevel(LogLevelDebug)
	if logger.GetLevel() != LogLevelDebug {
		t.Fatalf("level = %v", logger.GetLevel())
	}
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "[DEBUG] now visible") {
		t.Fatalf("debug line missing after SetLevel: %q", buf.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"off":     LogLevelNone,
		"ERROR":   LogLevelError,
		" warn ":  LogLevelWarning,
		"debug":   LogLevelDebug,
		"":        LogLevelInfo,
		"verbose": LogLevelInfo,
	}
	for in, want := range cases {
		if got := ParseLogLevel(in); got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
