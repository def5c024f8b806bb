package reminder

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/viki/internal/logger"
)

// mockSpeaker collects everything spoken.
type mockSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (m *mockSpeaker) Speak(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = append(m.spoken, text)
}

func (m *mockSpeaker) StopCurrentSpeech() {}
func (m *mockSpeaker) IsSpeaking() bool  { return false }

func (m *mockSpeaker) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.spoken...)
}

// mockNotifier collects urgent notifications.
type mockNotifier struct {
	mu     sync.Mutex
	urgent []string
}

func (m *mockNotifier) Notify(_ context.Context, msg string) error { return nil }

func (m *mockNotifier) NotifyUrgent(_ context.Context, msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urgent = append(m.urgent, msg)
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.urgent)
}

// unit keeps tests fast: one "second" of delay is 20ms.
const unit = 20 * time.Millisecond

func TestSetConfirmation(t *testing.T) {
	s := New(&mockSpeaker{}, logger.New(logger.LevelOff, nil), WithUnit(time.Hour))
	defer s.Stop()

	tests := []struct {
		delay int
		want  string
	}{
		{5, "Reminder set for 5 seconds from now."},
		{59, "Reminder set for 59 seconds from now."},
		{60, "Reminder set for 1 minutes from now."},
		{150, "Reminder set for 2 minutes from now."},
		{3599, "Reminder set for 59 minutes from now."},
		{3600, "Reminder set for 1 hours from now."},
		{7300, "Reminder set for 2 hours from now."},
	}
	for _, tt := range tests {
		if got := s.Set("x", tt.delay); got != tt.want {
			t.Errorf("Set(%d) = %q, want %q", tt.delay, got, tt.want)
		}
	}
	if got := s.Active(); got != len(tests) {
		t.Errorf("Active() = %d, want %d", got, len(tests))
	}
}

func TestReminderFires(t *testing.T) {
	sp := &mockSpeaker{}
	s := New(sp, logger.New(logger.LevelOff, nil), WithUnit(unit))
	defer s.Stop()

	s.Set("drink water", 2)
	time.Sleep(10 * unit)

	spoken := sp.all()
	if len(spoken) != 1 || spoken[0] != "Reminder: drink water" {
		t.Fatalf("spoken = %q, want one reminder", spoken)
	}
	if got := s.Active(); got != 0 {
		t.Errorf("Active() = %d after firing, want 0", got)
	}
}

func TestCancelAllBeforeFiring(t *testing.T) {
	sp := &mockSpeaker{}
	s := New(sp, logger.New(logger.LevelOff, nil), WithUnit(unit))
	defer s.Stop()

	s.Set("drink water", 2)
	time.Sleep(unit)
	if n := s.CancelAll(); n != 1 {
		t.Errorf("CancelAll() = %d, want 1", n)
	}

	time.Sleep(10 * unit)
	if spoken := sp.all(); len(spoken) != 0 {
		t.Errorf("cancelled reminder spoke: %q", spoken)
	}
}

func TestCancelAllLeavesFiredReminders(t *testing.T) {
	sp := &mockSpeaker{}
	s := New(sp, logger.New(logger.LevelOff, nil), WithUnit(unit))
	defer s.Stop()

	s.Set("early", 1)
	s.Set("late", 20)
	time.Sleep(6 * unit)

	if n := s.CancelAll(); n != 1 {
		t.Errorf("CancelAll() = %d, want 1 (only the late one)", n)
	}
	time.Sleep(25 * unit)

	spoken := sp.all()
	if len(spoken) != 1 || spoken[0] != "Reminder: early" {
		t.Errorf("spoken = %q, want only the early reminder", spoken)
	}
}

func TestCancelAllWhenEmpty(t *testing.T) {
	s := New(&mockSpeaker{}, logger.New(logger.LevelOff, nil))
	if n := s.CancelAll(); n != 0 {
		t.Errorf("CancelAll() = %d, want 0", n)
	}
}

func TestPendingSortedBySoonest(t *testing.T) {
	s := New(&mockSpeaker{}, logger.New(logger.LevelOff, nil), WithUnit(time.Minute))
	defer s.Stop()

	s.Set("third", 30)
	s.Set("first", 10)
	s.Set("second", 20)

	p := s.Pending()
	if len(p) != 3 {
		t.Fatalf("Pending() has %d, want 3", len(p))
	}
	for i, want := range []string{"first", "second", "third"} {
		if p[i].Message != want {
			t.Errorf("Pending()[%d] = %q, want %q", i, p[i].Message, want)
		}
	}
}

func TestNotifierReceivesFiredReminder(t *testing.T) {
	sp := &mockSpeaker{}
	n := &mockNotifier{}
	s := New(sp, logger.New(logger.LevelOff, nil), WithUnit(unit), WithNotifier(n))
	defer s.Stop()

	s.Set("stretch", 1)
	time.Sleep(8 * unit)

	if n.count() != 1 {
		t.Errorf("notifier got %d, want 1", n.count())
	}
	if len(sp.all()) != 0 {
		t.Error("speaker used directly when a notifier is set")
	}
}

func TestStopCancelsPending(t *testing.T) {
	sp := &mockSpeaker{}
	s := New(sp, logger.New(logger.LevelOff, nil), WithUnit(unit))

	s.Set("never", 2)
	s.Stop()
	time.Sleep(6 * unit)

	if len(sp.all()) != 0 || s.Active() != 0 {
		t.Error("reminder survived Stop")
	}
}

func TestHugeDelayIsCappedNotFired(t *testing.T) {
	sp := &mockSpeaker{}
	s := New(sp, logger.New(logger.LevelOff, nil))
	defer s.Stop()

	got := s.Set("stretch", 3000000*3600)
	if got != "Reminder set for 2562047 hours from now." {
		t.Errorf("Set = %q, want the capped delay", got)
	}
	time.Sleep(50 * time.Millisecond)

	if spoken := sp.all(); len(spoken) != 0 {
		t.Fatalf("reminder fired at once: %q", spoken)
	}
	p := s.Pending()
	if len(p) != 1 || time.Until(p[0].FireAt) < 24*time.Hour {
		t.Errorf("pending = %+v, want one far-off reminder", p)
	}
}
