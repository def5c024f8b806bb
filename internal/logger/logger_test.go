package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"off":     LevelOff,
		" Quiet ": LevelOff,
		"debug":   LevelVerbose,
		"VERBOSE": LevelVerbose,
		"info":    LevelNormal,
		"":        LevelNormal,
		"loud":    LevelNormal,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	for _, l := range []Level{LevelOff, LevelNormal, LevelVerbose} {
		if got := ParseLevel(l.String()); got != l {
			t.Errorf("ParseLevel(%q) = %v, want %v", l.String(), got, l)
		}
	}
}

func TestLevelsFilterOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelNormal, &buf)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Error("broken %s", "pipe")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line printed at normal level: %q", out)
	}
	if !strings.Contains(out, "[INF] ") || !strings.Contains(out, "shown 2") {
		t.Errorf("missing info line: %q", out)
	}
	if !strings.Contains(out, "[ERR] ") || !strings.Contains(out, "broken pipe") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestOffPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelOff, &buf)
	log.Warn("x")
	log.Error("y")
	if buf.Len() != 0 {
		t.Errorf("output at LevelOff: %q", buf.String())
	}
}
