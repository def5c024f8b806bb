package speech

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
	"golang.org/x/text/language"
)

// Voice describes one voice offered by a TTS backend.
type Voice struct {
	ID        string
	Name      string
	Languages []string
}

// matches reports whether the voice advertises the given primary language
// subtag in its language list, its ID or its name.
func (v Voice) matches(primary string) bool {
	for _, l := range v.Languages {
		if PrimarySubtag(l) == primary {
			return true
		}
	}
	return strings.Contains(strings.ToLower(v.ID), primary) ||
		strings.Contains(strings.ToLower(v.Name), primary)
}

// Backend is a single-output text-to-speech engine. Say queues one
// sentence, RunAndWait blocks until the queued text has been spoken (or
// truncated by Stop) and Stop may be called from any goroutine at any
// time, including while RunAndWait is blocked.
type Backend interface {
	ConfigureRate(wordsPerMinute int) error
	ConfigureVolume(volume float64) error
	ListVoices() ([]Voice, error)
	SelectVoice(id string) error
	Say(sentence string) error
	RunAndWait() error
	Stop() error
}

// Resetter is implemented by backends that can recover from a runtime
// fault without being rebuilt.
type Resetter interface {
	Reset() error
}

// Engine adapts a Backend for the controller: it applies the voice
// selection policy, logs instead of propagating backend errors where the
// caller can't act on them, and degrades to a logging no-op when no
// backend could be initialized.
type Engine struct {
	backend Backend
	log     *logger.Logger

	mu    sync.Mutex
	voice string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRate sets the speaking rate in words per minute.
func WithRate(wpm int) EngineOption {
	return func(e *Engine) {
		if err := e.backend.ConfigureRate(wpm); err != nil {
			e.log.Warn("tts: rate %d not applied: %v", wpm, err)
		}
	}
}

// WithVolume sets the output volume in [0, 1].
func WithVolume(v float64) EngineOption {
	return func(e *Engine) {
		if err := e.backend.ConfigureVolume(v); err != nil {
			e.log.Warn("tts: volume %.2f not applied: %v", v, err)
		}
	}
}

// NewEngine wraps a backend. A nil backend puts the engine in disabled
// mode, where every sentence is logged instead of spoken.
func NewEngine(backend Backend, log *logger.Logger, opts ...EngineOption) *Engine {
	if backend == nil {
		backend = NewNoOp(log)
	}
	e := &Engine{backend: backend, log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enabled reports whether the engine drives a real backend.
func (e *Engine) Enabled() bool {
	_, disabled := e.backend.(*NoOp)
	return !disabled
}

// Voice returns the ID of the voice last selected, or "" for the backend
// default.
func (e *Engine) Voice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voice
}

// SelectVoice picks the first voice whose languages, ID or name contain the
// primary subtag of languageCode ("es" for "es-ES"). When no voice
// matches, or voices can't be listed, the current voice is kept.
func (e *Engine) SelectVoice(languageCode string) {
	primary := PrimarySubtag(languageCode)
	if primary == "" {
		return
	}

	voices, err := e.backend.ListVoices()
	if err != nil {
		if !errors.Is(err, domain.ErrNoVoices) {
			e.log.Warn("tts: listing voices: %v", err)
		}
		return
	}

	for _, v := range voices {
		if !v.matches(primary) {
			continue
		}
		if err := e.backend.SelectVoice(v.ID); err != nil {
			e.log.Warn("tts: selecting voice %s: %v", v.ID, err)
			return
		}
		e.mu.Lock()
		e.voice = v.ID
		e.mu.Unlock()
		e.log.Info("tts: voice %s (%s) for %s", v.ID, v.Name, languageCode)
		return
	}
	e.log.Warn("tts: no voice for %s, keeping %q", languageCode, e.Voice())
}

// Say queues one sentence on the backend.
func (e *Engine) Say(sentence string) error {
	if err := e.backend.Say(sentence); err != nil {
		return fmt.Errorf("tts: say: %w", err)
	}
	return nil
}

// RunAndWait blocks until the queued sentence finishes or is stopped.
func (e *Engine) RunAndWait() error {
	if err := e.backend.RunAndWait(); err != nil {
		return fmt.Errorf("tts: run: %w", err)
	}
	return nil
}

// Stop truncates in-flight output. Safe to call when idle.
func (e *Engine) Stop() {
	if err := e.backend.Stop(); err != nil {
		e.log.Debug("tts: stop: %v", err)
	}
}

// Recover stops the backend and, when supported, resets it after a
// runtime fault so the next session starts clean.
func (e *Engine) Recover() {
	e.Stop()
	r, ok := e.backend.(Resetter)
	if !ok {
		return
	}
	if err := r.Reset(); err != nil {
		e.log.Error("tts: reset after fault: %v", err)
	}
}

// PrimarySubtag returns the lower-case primary language subtag of a
// BCP-47 code, e.g. "hi" for "hi-IN". Malformed codes fall back to the
// text before the first separator.
func PrimarySubtag(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			return base.String()
		}
	}
	head, _, _ := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-")
	return strings.ToLower(head)
}
