package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
)

// fakeChat returns canned replies and records what it was sent.
type fakeChat struct {
	mu    sync.Mutex
	reply string
	err   error
	seen  [][]domain.Turn
}

func (f *fakeChat) Chat(_ context.Context, turns []domain.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, turns)
	return f.reply, f.err
}

func newTestAgent(f *fakeChat) *Agent {
	return NewAgent(f, NewHistory(0), logger.New(logger.LevelOff, nil))
}

func TestReplyAppendsBothTurns(t *testing.T) {
	f := &fakeChat{reply: "**Sure**, here you go!"}
	a := newTestAgent(f)
	a.Greet("Hello! How can I help you today?")

	got := a.Reply(context.Background(), "tell me a joke")
	if got != "Sure, here you go!" {
		t.Errorf("Reply = %q, want sanitized text", got)
	}

	h := a.History()
	if len(h) != 3 {
		t.Fatalf("history has %d turns, want 3", len(h))
	}
	if h[1].Role != domain.RoleUser || h[1].Text != "tell me a joke" {
		t.Errorf("user turn = %+v", h[1])
	}
	if h[2].Role != domain.RoleModel || h[2].Text != got {
		t.Errorf("model turn = %+v", h[2])
	}
	if len(f.seen[0]) != 2 {
		t.Errorf("model saw %d turns, want greeting and prompt", len(f.seen[0]))
	}
}

func TestReplyErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"transport", fmt.Errorf("%w: dial tcp: refused", ErrTransport), "Error connecting to the AI service: dial tcp: refused"},
		{"decode", fmt.Errorf("%w: bad", ErrDecode), "Error: Could not decode JSON response from API."},
		{"empty", ErrEmptyReply, "Sorry, I couldn't get a response. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(&fakeChat{err: tt.err})
			if got := a.Reply(context.Background(), "hi"); got != tt.want {
				t.Errorf("Reply = %q, want %q", got, tt.want)
			}
			h := a.History()
			if len(h) != 1 || h[0].Role != domain.RoleUser {
				t.Errorf("history = %+v, want only the user turn", h)
			}
		})
	}
}

func TestReplyUnspeakableIsEmpty(t *testing.T) {
	a := newTestAgent(&fakeChat{reply: "#### ***"})
	got := a.Reply(context.Background(), "draw a line")
	if !strings.HasPrefix(got, "Sorry") {
		t.Errorf("Reply = %q", got)
	}
	if len(a.History()) != 1 {
		t.Error("empty reply added a model turn")
	}
}

func TestResetHistory(t *testing.T) {
	a := newTestAgent(&fakeChat{reply: "ok"})
	a.Reply(context.Background(), "one")
	a.ResetHistory()
	if n := len(a.History()); n != 0 {
		t.Errorf("history has %d turns after reset", n)
	}
}

func TestHistoryTrimsOldest(t *testing.T) {
	h := NewHistory(2)
	h.Append(domain.RoleUser, "a")
	h.Append(domain.RoleModel, "b")
	h.Append(domain.RoleUser, "c")

	s := h.Snapshot()
	if len(s) != 2 || s[0].Text != "b" || s[1].Text != "c" {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestHistoryConcurrentAppend(t *testing.T) {
	h := NewHistory(0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Append(domain.RoleUser, "x")
			_ = h.Snapshot()
		}()
	}
	wg.Wait()
	if h.Len() != 50 {
		t.Errorf("Len = %d, want 50", h.Len())
	}
}
