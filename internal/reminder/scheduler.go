// Package reminder schedules one-shot spoken reminders. Each reminder
// waits in its own goroutine with its own cancellation, and speaks through
// the shared speaker exactly like any other caller.
package reminder

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
	"github.com/hammamikhairi/viki/internal/speech"
)

// Compile-time interface check.
var _ domain.ReminderScheduler = (*Scheduler)(nil)

// Option configures the scheduler.
type Option func(*Scheduler)

// WithUnit sets the length of one delay "second". Tests shrink it.
func WithUnit(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.unit = d
		}
	}
}

// WithNotifier sends fired reminders through n instead of speaking
// directly, so they can also be shown on screen. n is expected to speak.
func WithNotifier(n domain.Notifier) Option {
	return func(s *Scheduler) {
		s.notifier = n
	}
}

// Reminder is one pending reminder.
type Reminder struct {
	ID      uint64
	Message string
	FireAt  time.Time

	cancel context.CancelFunc
}

// Scheduler owns the registry of pending reminders.
type Scheduler struct {
	speaker  domain.Speaker
	notifier domain.Notifier
	log      *logger.Logger
	unit     time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[uint64]*Reminder
	nextID  uint64
}

// New creates a scheduler that speaks through speaker.
func New(speaker domain.Speaker, log *logger.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		speaker: speaker,
		log:     log,
		unit:    time.Second,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[uint64]*Reminder),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set registers a reminder and returns the spoken confirmation at once.
// Negative delays fire immediately; delays past what a time.Duration can
// hold are capped.
func (s *Scheduler) Set(message string, delaySeconds int) string {
	if delaySeconds < 0 {
		delaySeconds = 0
	}
	if limit := int64(math.MaxInt64 / s.unit); int64(delaySeconds) > limit {
		s.log.Warn("reminder: delay %ds too long, capping at %ds", delaySeconds, limit)
		delaySeconds = int(limit)
	}
	delay := time.Duration(delaySeconds) * s.unit

	ctx, cancel := context.WithCancel(s.ctx)

	s.mu.Lock()
	s.nextID++
	r := &Reminder{
		ID:      s.nextID,
		Message: message,
		FireAt:  time.Now().Add(delay),
		cancel:  cancel,
	}
	s.pending[r.ID] = r
	s.mu.Unlock()

	go s.wait(ctx, r, delay)

	s.log.Info("reminder %d: %q in %s", r.ID, message, delay)
	return speech.LineReminderSet(delaySeconds)
}

// CancelAll cancels every pending reminder and reports how many there
// were. Reminders that already fired are unaffected.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	n := len(s.pending)
	for id, r := range s.pending {
		r.cancel()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if n > 0 {
		s.log.Info("reminders: cancelled %d", n)
	}
	return n
}

// Active returns the number of pending reminders.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Pending returns a snapshot of pending reminders, soonest first.
func (s *Scheduler) Pending() []Reminder {
	s.mu.Lock()
	out := make([]Reminder, 0, len(s.pending))
	for _, r := range s.pending {
		out = append(out, Reminder{ID: r.ID, Message: r.Message, FireAt: r.FireAt})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}

// Stop cancels everything at shutdown. The scheduler can't be reused.
func (s *Scheduler) Stop() {
	s.CancelAll()
	s.cancel()
}

func (s *Scheduler) wait(ctx context.Context, r *Reminder, delay time.Duration) {
	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		s.log.Debug("reminder %d: cancelled", r.ID)
		return
	case <-t.C:
	}

	// Claim the reminder under the lock so a CancelAll racing the timer
	// either wins outright or finds it already gone.
	s.mu.Lock()
	_, ok := s.pending[r.ID]
	delete(s.pending, r.ID)
	s.mu.Unlock()
	if !ok {
		return
	}
	r.cancel()

	text := speech.LineReminder(r.Message)
	s.log.Info("reminder %d: firing", r.ID)
	if s.notifier != nil {
		if err := s.notifier.NotifyUrgent(s.ctx, text); err != nil {
			s.log.Error("reminder %d: notify: %v", r.ID, err)
		}
		return
	}
	s.speaker.Speak(text)
}
