package conversation

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*TextNotifier)(nil)

// PrintFunc prints one message. display.UI.PrintChat and PrintUrgent
// match it.
type PrintFunc func(text string)

// TextNotifier shows notifications on screen. Wrap it in
// speech.SpeakingNotifier to have them read aloud as well.
type TextNotifier struct {
	log    *logger.Logger
	normal PrintFunc
	urgent PrintFunc
}

// NewTextNotifier creates a screen notifier. Nil print functions fall
// back to stdout; urgent falls back to normal.
func NewTextNotifier(log *logger.Logger, normal, urgent PrintFunc) *TextNotifier {
	if normal == nil {
		normal = func(text string) { fmt.Println(text) }
	}
	if urgent == nil {
		urgent = normal
	}
	return &TextNotifier{log: log, normal: normal, urgent: urgent}
}

// Notify prints a normal notification.
func (n *TextNotifier) Notify(_ context.Context, message string) error {
	n.log.Debug("notify: %s", message)
	n.normal(message)
	return nil
}

// NotifyUrgent prints an alert.
func (n *TextNotifier) NotifyUrgent(_ context.Context, message string) error {
	n.log.Debug("notify-urgent: %s", message)
	n.urgent(message)
	return nil
}
