// Package speech turns assistant replies into audio: it sanitizes text,
// adapts TTS backends and serializes playback through a single Controller.
package speech

import (
	"sync"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
)

// Compile-time interface check.
var _ Backend = (*NoOp)(nil)

// NoOp is a backend that logs instead of speaking. Used when TTS is
// disabled or no engine could be initialized.
type NoOp struct {
	log *logger.Logger

	mu      sync.Mutex
	pending string
}

// NewNoOp creates a no-op backend.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

func (n *NoOp) ConfigureRate(int) error       { return nil }
func (n *NoOp) ConfigureVolume(float64) error { return nil }
func (n *NoOp) SelectVoice(string) error      { return nil }

// ListVoices always reports that no voices exist.
func (n *NoOp) ListVoices() ([]Voice, error) {
	return nil, domain.ErrNoVoices
}

// Say records the sentence for the next RunAndWait.
func (n *NoOp) Say(sentence string) error {
	n.mu.Lock()
	n.pending = sentence
	n.mu.Unlock()
	return nil
}

// RunAndWait logs the pending sentence and returns immediately.
func (n *NoOp) RunAndWait() error {
	n.mu.Lock()
	text := n.pending
	n.pending = ""
	n.mu.Unlock()
	if text != "" {
		n.log.Info("TTS disabled: %s", text)
	}
	return nil
}

// Stop drops anything pending.
func (n *NoOp) Stop() error {
	n.mu.Lock()
	n.pending = ""
	n.mu.Unlock()
	return nil
}
