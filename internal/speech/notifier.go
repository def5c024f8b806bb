package speech

import (
	"context"
	"regexp"
	"strings"

	"github.com/hammamikhairi/viki/internal/domain"
)

// Compile-time interface check.
var _ domain.Notifier = (*SpeakingNotifier)(nil)

// SpeakingNotifier prints through a text notifier and then speaks the
// same message, interrupting whatever is playing.
type SpeakingNotifier struct {
	text    domain.Notifier
	speaker domain.Speaker
}

// NewSpeakingNotifier creates a notifier that both prints and speaks.
// text may be nil for speech only.
func NewSpeakingNotifier(text domain.Notifier, speaker domain.Speaker) *SpeakingNotifier {
	return &SpeakingNotifier{text: text, speaker: speaker}
}

// Notify prints and speaks the message.
func (n *SpeakingNotifier) Notify(ctx context.Context, message string) error {
	if n.text != nil {
		if err := n.text.Notify(ctx, message); err != nil {
			return err
		}
	}
	n.speaker.Speak(cleanForSpeech(message))
	return nil
}

// NotifyUrgent prints the message highlighted and speaks it.
func (n *SpeakingNotifier) NotifyUrgent(ctx context.Context, message string) error {
	if n.text != nil {
		if err := n.text.NotifyUrgent(ctx, message); err != nil {
			return err
		}
	}
	n.speaker.Speak(cleanForSpeech(message))
	return nil
}

var (
	bracketPrefix = regexp.MustCompile(`^\[[A-Za-z]+\]\s*`)
	ansiCodes     = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// cleanForSpeech strips terminal formatting that shouldn't be spoken.
func cleanForSpeech(msg string) string {
	cleaned := ansiCodes.ReplaceAllString(msg, "")
	cleaned = bracketPrefix.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}
