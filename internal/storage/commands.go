// Package storage persists the user's custom voice commands.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
)

// Compile-time interface check.
var _ domain.CommandSource = (*CommandStore)(nil)

// DefaultCommandsFile is the file name used when none is configured.
const DefaultCommandsFile = "custom_commands.json"

// WebPrefix marks a target that should open in the browser.
const WebPrefix = "web://"

// CommandStore is a JSON file mapping trigger phrases to targets. Reads
// are cached; the cache is dropped whenever the file changes on disk, so
// edits made while the assistant runs apply to the next command. Without
// a watcher every read goes to disk. Safe for concurrent access.
type CommandStore struct {
	path string
	log  *logger.Logger

	mu      sync.Mutex
	cache   map[string]string
	fresh   bool
	watcher *fsnotify.Watcher
}

// NewCommandStore creates a store backed by path. The file need not exist.
func NewCommandStore(path string, log *logger.Logger) *CommandStore {
	if path == "" {
		path = DefaultCommandsFile
	}
	return &CommandStore{path: filepath.Clean(path), log: log}
}

// Path returns the backing file.
func (s *CommandStore) Path() string { return s.path }

// Load reads the file. A missing file is an empty mapping. A malformed
// file also yields an empty mapping, together with the parse error.
func (s *CommandStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return map[string]string{}, fmt.Errorf("storage: read %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]string{}, nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]string{}, fmt.Errorf("storage: parse %s: %w", s.path, err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}

// Commands returns a copy of the current mapping. Read failures are
// logged and treated as an empty mapping.
func (s *CommandStore) Commands() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fresh || s.watcher == nil {
		m, err := s.Load()
		if err != nil {
			s.log.Warn("custom commands unavailable, starting with none: %v", err)
		}
		s.cache = m
		s.fresh = true
	}
	return copyMap(s.cache)
}

// Add maps trigger to target and saves. Triggers are stored lowercased.
func (s *CommandStore) Add(trigger, target string) error {
	trigger = strings.ToLower(strings.TrimSpace(trigger))
	target = strings.TrimSpace(target)
	if trigger == "" {
		return domain.ErrInvalidTrigger
	}
	if target == "" || target == WebPrefix {
		return domain.ErrEmptyCommand
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Load()
	if err != nil {
		return err
	}
	m[trigger] = target
	if err := s.save(m); err != nil {
		return err
	}
	s.log.Info("custom command added: %q -> %s", trigger, target)
	return nil
}

// Remove deletes trigger and saves. Unknown triggers return ErrNotFound.
func (s *CommandStore) Remove(trigger string) error {
	trigger = strings.ToLower(strings.TrimSpace(trigger))

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Load()
	if err != nil {
		return err
	}
	found := ""
	for k := range m {
		if strings.ToLower(strings.TrimSpace(k)) == trigger {
			found = k
			break
		}
	}
	if found == "" {
		return domain.ErrNotFound
	}
	delete(m, found)
	if err := s.save(m); err != nil {
		return err
	}
	s.log.Info("custom command removed: %q", trigger)
	return nil
}

// Save replaces the whole mapping.
func (s *CommandStore) Save(m map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(m)
}

// save writes through a temp file and rename so readers never see a
// half-written file. Caller holds mu.
func (s *CommandStore) save(m map[string]string) error {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".commands-*.json")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: rename: %w", err)
	}

	s.cache = copyMap(m)
	s.fresh = true
	return nil
}

// ── Watching ─────────────────────────────────────────────────────

// Watch starts invalidating the cache on file changes until ctx ends or
// Close is called. The parent directory is watched so the file may be
// created, replaced or deleted at any time.
func (s *CommandStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("storage: watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("storage: watch %s: %w", dir, err)
	}

	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		w.Close()
		return nil
	}
	s.watcher = w
	s.fresh = false
	s.mu.Unlock()

	s.log.Debug("watching %s for custom command edits", s.path)
	go s.watch(ctx, w)
	return nil
}

func (s *CommandStore) watch(ctx context.Context, w *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			s.log.Debug("custom commands changed (%s)", ev.Op)
			s.mu.Lock()
			s.fresh = false
			s.mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.log.Warn("custom commands watcher: %v", err)
		}
	}
}

// Close stops watching. Reads keep working, uncached.
func (s *CommandStore) Close() error {
	s.mu.Lock()
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if w == nil {
		return nil
	}
	return w.Close()
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
