package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hammamikhairi/viki/internal/logger"
	"github.com/hammamikhairi/viki/internal/storage"
)

func TestRunCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmds.json")
	store := storage.NewCommandStore(path, logger.New(logger.LevelOff, nil))

	run := func(args ...string) (int, string) {
		var out bytes.Buffer
		code := runCommands(store, args, &out)
		return code, out.String()
	}

	if code, out := run("list"); code != 0 || !strings.Contains(out, "no custom commands") {
		t.Errorf("empty list = %d %q", code, out)
	}
	if code, _ := run("add", "docs", "web://https://go.dev/doc"); code != 0 {
		t.Errorf("add exit code = %d", code)
	}
	if code, out := run("list"); code != 0 || !strings.Contains(out, "https://go.dev/doc") {
		t.Errorf("list = %d %q", code, out)
	}
	if code, _ := run("remove", "docs"); code != 0 {
		t.Errorf("remove exit code = %d", code)
	}
	if code, out := run("remove", "docs"); code != 1 || !strings.Contains(out, "no command") {
		t.Errorf("second remove = %d %q", code, out)
	}
	if code, _ := run("add", "only-trigger"); code != 2 {
		t.Errorf("bad add exit code = %d", code)
	}
	if code, _ := run("frobnicate"); code != 2 {
		t.Errorf("unknown subcommand exit code = %d", code)
	}
}
