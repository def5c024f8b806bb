package display

import (
	"strings"
	"testing"
	"time"
)

func TestFmtDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{1400 * time.Millisecond, "1s"},
		{59 * time.Second, "59s"},
		{90 * time.Second, "1m30s"},
		{time.Hour + 5*time.Minute, "1h05m"},
	}
	for _, tt := range tests {
		if got := fmtDuration(tt.in); got != tt.want {
			t.Errorf("fmtDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	bar := renderBar(Status{
		Speaking:     true,
		Language:     "es-ES",
		ChatMode:     true,
		Reminders:    2,
		NextReminder: "stretch",
		NextIn:       90 * time.Second,
	}, 120)

	for _, want := range []string{"speaking", "es-ES", "chat mode", "reminders: 2", `"stretch"`, "1m30s"} {
		if !strings.Contains(bar, want) {
			t.Errorf("bar missing %q:\n%s", want, bar)
		}
	}

	idle := renderBar(Status{}, 80)
	if !strings.Contains(idle, "idle") || strings.Contains(idle, "chat mode") {
		t.Errorf("idle bar = %q", idle)
	}
}

func TestRenderBannerCentres(t *testing.T) {
	out := renderBanner("ab\nabcd\n", "hi", 10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines: %q", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "   ") {
		t.Errorf("art not padded: %q", lines[0])
	}
	if !strings.Contains(lines[3], "hi") {
		t.Errorf("tagline missing: %q", lines[3])
	}
}
