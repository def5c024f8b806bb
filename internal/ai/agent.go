package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
	"github.com/hammamikhairi/viki/internal/speech"
)

// Compile-time interface check.
var _ domain.ChatBackend = (*Agent)(nil)

// Spoken replies for failed requests.
const (
	replyNoResponse = "Sorry, I couldn't get a response. Please try again."
	replyBadJSON    = "Error: Could not decode JSON response from API."
)

// chatter is the part of Client the agent needs.
type chatter interface {
	Chat(ctx context.Context, turns []domain.Turn) (string, error)
}

// Agent keeps the conversation and turns every outcome of a model call
// into something speakable. It is the single entry point the dispatcher
// uses for AI replies.
type Agent struct {
	client  chatter
	history *History
	log     *logger.Logger
}

// NewAgent creates an agent over client and history.
func NewAgent(client chatter, history *History, log *logger.Logger) *Agent {
	return &Agent{client: client, history: history, log: log}
}

// Greet records an assistant line as the opening model turn.
func (a *Agent) Greet(text string) {
	a.history.Append(domain.RoleModel, text)
}

// Reply appends the prompt to the history, asks the model and returns
// the sanitized reply, which is also appended. Failures come back as a
// spoken error; the user turn stays in the history either way.
func (a *Agent) Reply(ctx context.Context, prompt string) string {
	a.history.Append(domain.RoleUser, prompt)

	raw, err := a.client.Chat(ctx, a.history.Snapshot())
	if err != nil {
		a.log.Warn("ai: %v", err)
		return errorReply(err)
	}

	text := speech.Sanitize(raw)
	if text == "" {
		a.log.Warn("ai: reply had nothing speakable: %q", truncate(raw, 80))
		return replyNoResponse
	}
	a.history.Append(domain.RoleModel, text)
	return text
}

// History returns a copy of the conversation.
func (a *Agent) History() []domain.Turn {
	return a.history.Snapshot()
}

// ResetHistory clears the conversation.
func (a *Agent) ResetHistory() {
	a.history.Reset()
}

func errorReply(err error) string {
	switch {
	case errors.Is(err, ErrEmptyReply):
		return replyNoResponse
	case errors.Is(err, ErrDecode):
		return replyBadJSON
	case errors.Is(err, ErrTransport):
		detail := strings.TrimPrefix(err.Error(), ErrTransport.Error()+": ")
		return fmt.Sprintf("Error connecting to the AI service: %s", detail)
	default:
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}
