package speech

// Every fixed spoken string lives here. Keep lines short; the sanitizer
// strips anything a TTS engine can't pronounce.

import (
	"fmt"
	"strings"
	"time"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome() string {
	return "Hello! How can I help you today?"
}

func LineHello() string {
	return "Hey there! What can I do for you today?"
}

func LineName() string {
	return "I'm Viky, your friendly assistant. How can I help?"
}

func LineTime(now time.Time) string {
	return fmt.Sprintf("It's %s right now.", now.Format("03:04 PM"))
}

func LineBye() string {
	return "Goodbye!"
}

func LineDidNotCatch() string {
	return "I didn't catch your question. Please try again."
}

func LineNoSearchTerm() string {
	return "What would you like me to search for?"
}

// ── Language ─────────────────────────────────────────────────────

func LineLanguageSwitched(from, to string) string {
	return fmt.Sprintf("Language switched from %s to %s. I will now listen and respond in %s.", from, to, to)
}

// LineLanguageSwitchedSpanish is the reply to "habla en spanish".
func LineLanguageSwitchedSpanish(from string) string {
	return fmt.Sprintf("Cambiando de %s a español. Ahora escucharé y responderé en español.", from)
}

// ── Chat mode ────────────────────────────────────────────────────

func LineChatOn() string {
	return "Chat mode activated. You can now talk to me like a chatbot."
}

func LineChatOff() string {
	return "Chat mode deactivated. Returning to command mode."
}

func LineChatReset() string {
	return "Chat history has been reset."
}

func LineNoChatHistory() string {
	return "There is no chat history to show."
}

func LineAIDisabled() string {
	return "The AI assistant is not available. Set an API key to enable it."
}

// ── Apps and web ─────────────────────────────────────────────────

func LineOpening(what string) string {
	return fmt.Sprintf("Opening %s.", what)
}

func LineNotInstalled(what string) string {
	return fmt.Sprintf("%s is not installed on this computer.", what)
}

func LineChromeMissing() string {
	return "Chrome browser not found on your system. Please ensure it's installed or update the path."
}

func LineWorkout() string {
	return "Time for a workout!"
}

func LineWhichSong() string {
	return "What song would you like me to play?"
}

func LineSearching(term string) string {
	return fmt.Sprintf("Searching Google for %s.", term)
}

func LineWikipedia() string {
	return "What would you like to know about on Wikipedia?"
}

// ── Custom commands ──────────────────────────────────────────────

func LinePathMissing(path string) string {
	return fmt.Sprintf("The path %s does not exist.", path)
}

func LineOpenFailed(name string, err error) string {
	return fmt.Sprintf("Failed to open %s. Error: %v", name, err)
}

// ── Reminders ────────────────────────────────────────────────────

// LineReminderSet confirms a reminder. Delays under a minute are spoken
// in seconds, under an hour in whole minutes, otherwise in whole hours.
func LineReminderSet(delaySeconds int) string {
	var span string
	switch {
	case delaySeconds < 60:
		span = fmt.Sprintf("%d seconds", delaySeconds)
	case delaySeconds < 3600:
		span = fmt.Sprintf("%d minutes", delaySeconds/60)
	default:
		span = fmt.Sprintf("%d hours", delaySeconds/3600)
	}
	return fmt.Sprintf("Reminder set for %s from now.", span)
}

func LineReminderTooFar() string {
	return "That's too far ahead for a reminder."
}

func LineReminder(message string) string {
	return "Reminder: " + message
}

func LineRemindersCancelled(n int) string {
	switch n {
	case 0:
		return "There are no reminders to cancel."
	case 1:
		return "Cancelled 1 reminder."
	default:
		return fmt.Sprintf("Cancelled %d reminders.", n)
	}
}

func LineRemindersActive(n int) string {
	switch n {
	case 0:
		return "You have no reminders."
	case 1:
		return "You have 1 reminder pending."
	default:
		return fmt.Sprintf("You have %d reminders pending.", n)
	}
}

// ── Helpers ──────────────────────────────────────────────────────

// LineChatHistory renders a transcript, one "Role: text" line per turn.
func LineChatHistory(roles, texts []string) string {
	var b strings.Builder
	b.WriteString("Here is the chat history:")
	for i := range roles {
		role := roles[i]
		if role != "" {
			role = strings.ToUpper(role[:1]) + role[1:]
		}
		fmt.Fprintf(&b, "\n%s: %s", role, texts[i])
	}
	return b.String()
}
