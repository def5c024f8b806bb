package speech

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hammamikhairi/viki/internal/logger"
)

// SessionState is the lifecycle position of one speech request.
type SessionState int32

const (
	// SessionIdle means the session was created but hasn't started.
	SessionIdle SessionState = iota
	// SessionPlaying means sentences are being handed to the engine.
	SessionPlaying
	// SessionCompleted means every sentence was spoken.
	SessionCompleted
	// SessionCancelled means the session stopped early, either on request
	// or after an engine fault.
	SessionCancelled
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionPlaying:
		return "playing"
	case SessionCompleted:
		return "completed"
	case SessionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final.
func (s SessionState) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// session plays one request's sentences in order. It owns a private
// cancellation context so a late exit can never be confused with the
// session that replaced it.
type session struct {
	id        uint64
	sentences []string
	engine    *Engine
	log       *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	state  atomic.Int32
	cursor int // only touched by run

	// onExit runs after the terminal state is set and before done closes.
	// It must not block on anything the controller holds during handoff.
	onExit func(*session, SessionState)
}

func newSession(id uint64, sentences []string, engine *Engine, log *logger.Logger, onExit func(*session, SessionState)) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:        id,
		sentences: sentences,
		engine:    engine,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		onExit:    onExit,
	}
}

func (s *session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *session) setState(st SessionState) {
	s.state.Store(int32(st))
}

// run speaks sentences until exhausted, cancelled or the engine fails.
// Cancellation is checked before each sentence; a sentence already in
// RunAndWait is cut short only by an engine Stop.
func (s *session) run() {
	defer close(s.done)
	defer s.cancel()

	s.setState(SessionPlaying)
	s.log.Debug("speech[%d]: playing %d sentence(s)", s.id, len(s.sentences))

	final := SessionCompleted
	for s.cursor < len(s.sentences) {
		if s.ctx.Err() != nil {
			final = SessionCancelled
			break
		}

		sentence := s.sentences[s.cursor]
		s.log.Debug("speech[%d]: %q", s.id, truncate(sentence, 60))

		if err := s.engine.Say(sentence); err != nil {
			s.log.Error("speech[%d]: %v", s.id, err)
			s.engine.Recover()
			final = SessionCancelled
			break
		}
		if err := s.engine.RunAndWait(); err != nil {
			s.log.Error("speech[%d]: %v", s.id, err)
			s.engine.Recover()
			final = SessionCancelled
			break
		}
		s.cursor++
	}

	// Stop may have truncated the last sentence after the loop's check.
	if final == SessionCompleted && s.ctx.Err() != nil {
		final = SessionCancelled
	}

	s.setState(final)
	s.log.Debug("speech[%d]: %s after %d/%d sentence(s)", s.id, final, s.cursor, len(s.sentences))
	if s.onExit != nil {
		s.onExit(s, final)
	}
}

// wait blocks until the session exits or the timeout elapses. It reports
// whether the session exited.
func (s *session) wait(timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-s.done:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-s.done:
		return true
	case <-t.C:
		return false
	}
}
