package speech

import (
	"sync"
	"time"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Speaker       = (*Controller)(nil)
	_ domain.VoiceSelector = (*Controller)(nil)
)

// DefaultHandoffTimeout bounds how long a new request waits for the
// previous session to exit before proceeding anyway.
const DefaultHandoffTimeout = 100 * time.Millisecond

// Controller is the single owner of the speech engine. At most one
// session holds the engine at a time; a new Speak cancels the current
// session and waits a bounded time for it to exit before starting.
//
// Two locks are involved. mu serializes handoffs (Speak, Stop, Close) and
// is held while waiting for a session to exit. stateMu guards the active
// session, the speaking indicator and the generation counter, and is the
// only lock a session takes on its way out, so a slow handoff can never
// deadlock with the session it is waiting on.
type Controller struct {
	engine         *Engine
	log            *logger.Logger
	handoffTimeout time.Duration
	onState        func(id uint64, state SessionState)

	mu     sync.Mutex
	closed bool

	stateMu  sync.Mutex
	active   *session
	last     *session
	speaking bool
	gen      uint64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithHandoffTimeout overrides DefaultHandoffTimeout.
func WithHandoffTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.handoffTimeout = d
		}
	}
}

// WithStateHook registers a callback invoked on every session state
// change. It runs on the session's goroutine and must not call back into
// the controller.
func WithStateHook(fn func(id uint64, state SessionState)) ControllerOption {
	return func(c *Controller) {
		c.onState = fn
	}
}

// NewController creates a controller driving the given engine.
func NewController(engine *Engine, log *logger.Logger, opts ...ControllerOption) *Controller {
	c := &Controller{
		engine:         engine,
		log:            log,
		handoffTimeout: DefaultHandoffTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Speak interrupts whatever is playing and starts speaking text in the
// background. Text that sanitizes to nothing leaves the controller idle.
// Concurrent calls are serialized; the last one wins.
func (c *Controller) Speak(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.log.Debug("speech: closed, dropping %q", truncate(text, 60))
		return
	}

	c.retire(false)

	sentences := Sentences(text)
	if len(sentences) == 0 {
		c.log.Debug("speech: nothing speakable in %q", truncate(text, 60))
		return
	}

	c.stateMu.Lock()
	c.gen++
	s := newSession(c.gen, sentences, c.engine, c.log, c.exited)
	c.active = s
	c.last = s
	c.speaking = true
	c.stateMu.Unlock()

	c.notify(s.id, SessionIdle)
	go func() {
		c.notify(s.id, SessionPlaying)
		s.run()
	}()
}

// StopCurrentSpeech cancels the active session and truncates in-flight
// audio. Calling it while idle is a no-op.
func (c *Controller) StopCurrentSpeech() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retire(true) {
		c.log.Info("speech: interrupted")
	}
}

// IsSpeaking reports whether a session is currently playing.
func (c *Controller) IsSpeaking() bool {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.speaking
}

// SessionState returns the state of the most recent session, or
// SessionIdle when there is none.
func (c *Controller) SessionState() SessionState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if c.last == nil {
		return SessionIdle
	}
	return c.last.State()
}

// Generation returns how many sessions have been started.
func (c *Controller) Generation() uint64 {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.gen
}

// SelectVoice switches the engine's voice for the given language code.
// It does not interrupt playback. Listing voices may run a subprocess,
// so it stays outside mu and never delays a Speak or a stop.
func (c *Controller) SelectVoice(languageCode string) {
	c.engine.SelectVoice(languageCode)
}

// Close stops playback and rejects further requests.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retire(true)
	c.closed = true
}

// retire cancels the active session and waits for it to exit. With force
// the engine is stopped immediately; otherwise the session is given one
// handoff interval to finish its sentence before the engine is stopped.
// Either way the indicator is cleared and the reference dropped, even if
// the session is still unwinding. Reports whether there was a session.
// Callers hold mu.
func (c *Controller) retire(force bool) bool {
	c.stateMu.Lock()
	old := c.active
	c.stateMu.Unlock()
	if old == nil {
		return false
	}

	old.cancel()
	if force {
		c.engine.Stop()
	}

	exited := old.wait(c.handoffTimeout)
	if !exited && !force {
		c.log.Debug("speech[%d]: still in its sentence, stopping engine", old.id)
		c.engine.Stop()
		exited = old.wait(c.handoffTimeout)
	}
	if !exited {
		c.log.Warn("speech[%d]: did not exit within %s, proceeding", old.id, c.handoffTimeout)
	}

	c.stateMu.Lock()
	c.active = nil
	c.speaking = false
	c.stateMu.Unlock()
	return true
}

// exited is the session's exit hook. Only the current generation may
// touch shared state; a stale session's bookkeeping was already done by
// the handoff that replaced it.
func (c *Controller) exited(s *session, final SessionState) {
	c.stateMu.Lock()
	if c.active == s {
		c.engine.Stop()
		c.speaking = false
		c.active = nil
	}
	c.stateMu.Unlock()

	c.notify(s.id, final)
}

func (c *Controller) notify(id uint64, state SessionState) {
	if c.onState != nil {
		c.onState(id, state)
	}
}
