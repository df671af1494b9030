package core

import (
	"bytes"
	"strings"
	"testing"
)

// TestLevelLogger_FiltersBelowMinimum verifies the level threshold
// Given: A logger writing to a buffer with minimum level Warn
// When: Messages of every level are logged
// Then: Only Warn and Error lines appear, formatted with their fields
func TestLevelLogger_FiltersBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	l := NewLevelLogger(&buf, LevelWarn)

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line", F("blocked", 2))
	l.Error("error line", F("tasklet", TaskletID(4)), F("reason", "panic"))

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Fatalf("output contains filtered levels:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] warn line {blocked: 2}") {
		t.Errorf("missing warn line:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] error line {tasklet: tasklet-4, reason: panic}") {
		t.Errorf("missing error line:\n%s", out)
	}
}

// TestParseLevel verifies level names
func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel(loud) should fail")
	}
}

// TestFormatLogLine_NoFields verifies lines without fields have no braces
func TestFormatLogLine_NoFields(t *testing.T) {
	if got := formatLogLine(LevelInfo, "hello", nil); got != "[INFO] hello" {
		t.Fatalf("formatLogLine() = %q, want [INFO] hello", got)
	}
}
