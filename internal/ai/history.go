package ai

import (
	"sync"

	"github.com/hammamikhairi/viki/internal/domain"
)

// History is the conversation sent to the model on every request. It is
// safe for concurrent use; the dispatcher and the UI may touch it from
// different goroutines.
type History struct {
	mu       sync.Mutex
	turns    []domain.Turn
	maxTurns int
}

// NewHistory creates an empty history. maxTurns <= 0 keeps everything;
// otherwise the oldest turns are dropped once the limit is exceeded.
func NewHistory(maxTurns int) *History {
	return &History{maxTurns: maxTurns}
}

// Append adds a turn.
func (h *History) Append(role, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, domain.Turn{Role: role, Text: text})
	if h.maxTurns > 0 && len(h.turns) > h.maxTurns {
		drop := len(h.turns) - h.maxTurns
		h.turns = append([]domain.Turn(nil), h.turns[drop:]...)
	}
}

// Snapshot returns a copy of the turns, oldest first.
func (h *History) Snapshot() []domain.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

// Reset forgets every turn.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
