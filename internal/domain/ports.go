// Package domain defines the core types and interfaces for the assistant.
// All other packages depend on domain; domain depends on nothing.
package domain

import "context"

// Speaker is anything that can say text out loud. The speech controller
// implements it; reminders and the command loop call it.
type Speaker interface {
	Speak(text string)
	StopCurrentSpeech()
	IsSpeaking() bool
}

// VoiceSelector picks a TTS voice for a language code such as "en-US".
type VoiceSelector interface {
	SelectVoice(languageCode string)
}

// Launcher opens applications and URLs on the host.
type Launcher interface {
	OpenURL(url string) error
	Start(path string, args ...string) error
}

// CommandSource provides the user's custom trigger -> target mapping.
// Targets are either filesystem paths or "web://"-prefixed URLs.
type CommandSource interface {
	Commands() map[string]string
}

// ChatBackend answers free-form questions using the conversation so far.
// Reply never returns an error: faults come back as a spoken message.
type ChatBackend interface {
	Reply(ctx context.Context, prompt string) string
	History() []Turn
	ResetHistory()
}

// ReminderScheduler schedules spoken reminders.
type ReminderScheduler interface {
	Set(message string, delaySeconds int) string
	CancelAll() int
	Active() int
}

// Notifier delivers text to the user's screen.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
