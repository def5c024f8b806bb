// Viki is a voice assistant: it listens for commands, runs the matching
// action or asks an AI model, and speaks the reply. Any reply can be
// interrupted by saying or typing "stop".
//
// Usage:
//
//	viki [-config viki.yaml] [-voice] [-verbose] [-quiet]
//	viki commands list|add <trigger> <target>|remove <trigger>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hammamikhairi/viki/internal/ai"
	"github.com/hammamikhairi/viki/internal/config"
	"github.com/hammamikhairi/viki/internal/conversation"
	"github.com/hammamikhairi/viki/internal/display"
	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/launcher"
	"github.com/hammamikhairi/viki/internal/logger"
	"github.com/hammamikhairi/viki/internal/reminder"
	"github.com/hammamikhairi/viki/internal/speech"
	"github.com/hammamikhairi/viki/internal/storage"
)

// farewellWait bounds how long the goodbye may play before exit.
const farewellWait = 3 * time.Second

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", config.DefaultPath, "YAML config file")
	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", "", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech")
	backend := flag.String("backend", "", "TTS backend: exec, audio, azure or none")
	noAI := flag.Bool("no-ai", false, "disable the AI fallback even if a key is set")
	lang := flag.String("language", "", "starting language code, e.g. es-ES")
	voice := flag.Bool("voice", false, "enable voice input via local Whisper STT")
	whisperBin := flag.String("whisper-bin", "", "path to the whisper-cpp CLI binary")
	whisperModel := flag.String("whisper-model", "", "path to the Whisper GGML model file")
	recordSecs := flag.Int("record-secs", 0, "seconds per voice recording chunk")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Flags win over the file, but only when given.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbose":
			if *verbose {
				cfg.Log.Level = logger.LevelVerbose.String()
			}
		case "quiet":
			if *quiet {
				cfg.Log.Level = logger.LevelOff.String()
			}
		case "log-file":
			cfg.Log.File = *logFile
		case "no-speech":
			if *noSpeech {
				cfg.Speech.Backend = speech.BackendNone
			}
		case "backend":
			cfg.Speech.Backend = *backend
		case "no-ai":
			cfg.AI.Enabled = !*noAI
		case "language":
			cfg.Language.Default = *lang
		case "voice":
			cfg.VoiceInput.Enabled = *voice
		case "whisper-bin":
			cfg.VoiceInput.WhisperBin = *whisperBin
		case "whisper-model":
			cfg.VoiceInput.WhisperModel = *whisperModel
		case "record-secs":
			cfg.VoiceInput.RecordSecs = *recordSecs
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if flag.Arg(0) == "commands" {
		log := logger.New(logger.LevelOff, nil)
		store := storage.NewCommandStore(cfg.Commands.Path, log)
		os.Exit(runCommands(store, flag.Args()[1:], os.Stdout))
	}

	// Logs go to a file by default so the prompt stays clean.
	var logOut io.Writer = os.Stderr
	if cfg.Log.File != "" && cfg.Log.File != "stderr" {
		dir := filepath.Dir(cfg.Log.File)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.Log.File, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	log := logger.New(logger.ParseLevel(cfg.Log.Level), logOut)

	// Third-party libs (the whisper transcriber) log through the stdlib.
	log.Std()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Speech ──

	engine := speech.NewEngineFromConfig(cfg.Speech.Config, log)
	controller := speech.NewController(engine, log,
		speech.WithHandoffTimeout(cfg.Speech.HandoffTimeout()),
	)
	defer controller.Close()
	controller.SelectVoice(cfg.Language.Default)

	// ── Collaborators ──

	store := storage.NewCommandStore(cfg.Commands.Path, log)
	if cfg.Commands.Watch {
		if err := store.Watch(ctx); err != nil {
			log.Warn("custom commands will be re-read on every query: %v", err)
		}
	}
	defer store.Close()

	var (
		ui        *display.UI
		reminders *reminder.Scheduler
		assistant *conversation.Assistant
	)
	ui = display.NewUI(func() display.Status {
		st := display.Status{
			Speaking: controller.IsSpeaking(),
			Language: assistant.Language(),
			ChatMode: assistant.ChatMode(),
		}
		if p := reminders.Pending(); len(p) > 0 {
			st.Reminders = len(p)
			st.NextReminder = p[0].Message
			st.NextIn = time.Until(p[0].FireAt)
		}
		return st
	})

	textNotifier := conversation.NewTextNotifier(log, ui.PrintChat, ui.PrintUrgent)
	notifier := speech.NewSpeakingNotifier(textNotifier, controller)
	reminders = reminder.New(controller, log, reminder.WithNotifier(notifier))
	defer reminders.Stop()

	opts := []conversation.Option{
		conversation.WithCommands(store),
		conversation.WithReminders(reminders),
		conversation.WithVoices(controller),
		conversation.WithLanguage(cfg.Language.Default),
	}
	agent := newAgent(cfg.AI, log)
	if agent != nil {
		opts = append(opts, conversation.WithChat(agent))
	}
	assistant = conversation.New(controller, launcher.New(log), log, opts...)

	// ── Voice input ──

	var ear *speech.Ear
	if cfg.VoiceInput.Enabled {
		if _, err := os.Stat(cfg.VoiceInput.WhisperModel); err != nil {
			fmt.Fprintf(os.Stderr, "error: whisper model not found at %s\n", cfg.VoiceInput.WhisperModel)
			os.Exit(1)
		}
		earOpts := []speech.EarOption{
			speech.WithRecordDuration(time.Duration(cfg.VoiceInput.RecordSecs) * time.Second),
			speech.WithUtteranceTimeout(time.Duration(cfg.VoiceInput.UtteranceTimeoutSecs) * time.Second),
			speech.WithTempDir(cfg.VoiceInput.TempDir),
		}
		if cfg.VoiceInput.BargeIn {
			earOpts = append(earOpts, speech.WithBargeIn(controller, speech.StopPhrases...))
		}
		ear = speech.NewEar(cfg.VoiceInput.WhisperBin, cfg.VoiceInput.WhisperModel, log, earOpts...)
		go ear.Run(ctx)
		log.Info("voice input enabled (bin=%s, model=%s, chunk=%ds)",
			cfg.VoiceInput.WhisperBin, cfg.VoiceInput.WhisperModel, cfg.VoiceInput.RecordSecs)
	}

	app := &cliApp{
		assistant: assistant,
		speaker:   controller,
		agent:     agent,
		ear:       ear,
		log:       log,
		ui:        ui,
	}

	fmt.Println(display.RenderBanner("your voice assistant"))
	if ear != nil {
		fmt.Println(display.BannerStyle.Render("  Voice mode ON. Speak, or type commands. Say \"stop\" to interrupt."))
	} else {
		fmt.Println(display.BannerStyle.Render("  Type a command, \"stop\" to interrupt, \"exit\" to quit."))
	}
	if !engine.Enabled() {
		fmt.Println(display.BannerStyle.Render("  Speech is off; replies are printed only."))
	}
	fmt.Println()

	go func() {
		ui.WaitReady()
		app.run(ctx)
		ui.Quit()
	}()

	// Bubble Tea owns the terminal; blocks until quit.
	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
}

// newAgent returns nil when the AI fallback is off or has no credentials.
func newAgent(cfg config.AIConfig, log *logger.Logger) *ai.Agent {
	if !cfg.Enabled {
		log.Info("AI disabled by config")
		return nil
	}
	if cfg.APIKey == "" && cfg.Endpoint == "" {
		log.Info("AI disabled: set GEMINI_API_KEY or VIKI_AI_API_KEY to enable")
		return nil
	}

	opts := []ai.ClientOption{
		ai.WithProvider(cfg.Provider),
		ai.WithModel(cfg.Model),
		ai.WithRequestsPerMinute(cfg.RequestsPerMinute),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, ai.WithEndpoint(cfg.Endpoint))
	}
	if cfg.TimeoutSecs > 0 {
		opts = append(opts, ai.WithHTTPTimeout(time.Duration(cfg.TimeoutSecs)*time.Second))
	}
	client := ai.NewClient(cfg.APIKey, log, opts...)
	log.Info("AI enabled (provider=%s, model=%s)", cfg.Provider, cfg.Model)
	return ai.NewAgent(client, ai.NewHistory(cfg.MaxHistory), log)
}

type cliApp struct {
	assistant *conversation.Assistant
	speaker   domain.Speaker
	agent     *ai.Agent   // nil when AI is disabled
	ear       *speech.Ear // nil when voice input is disabled
	log       *logger.Logger
	ui        *display.UI
}

// say prints a reply and speaks it, replacing anything still playing.
func (a *cliApp) say(text string) {
	a.ui.PrintChat(text)
	a.speaker.Speak(text)
}

func (a *cliApp) run(ctx context.Context) {
	greeting := speech.LineWelcome()
	a.say(greeting)
	if a.agent != nil {
		a.agent.Greet(greeting)
	}

	// Receiving on a nil channel blocks forever, so without an ear the
	// select only ever takes keyboard input.
	var voiceCh <-chan string
	if a.ear != nil {
		voiceCh = a.ear.C()
	}
	uiCh := a.ui.InputChan()

	for {
		var input string
		var ok bool

		select {
		case <-ctx.Done():
			return
		case <-a.ui.QuitChan():
			return
		case input, ok = <-uiCh:
			if !ok {
				return
			}
		case input = <-voiceCh:
			a.ui.PrintVoice(input)
			if speech.Sanitize(input) == "" {
				a.say(speech.LineDidNotCatch())
				continue
			}
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		res := a.assistant.Handle(ctx, input)
		a.log.Debug("result: %s", res.Kind)

		switch res.Kind {
		case domain.ResultSpeak:
			a.say(res.Text)
		case domain.ResultInterrupted:
			a.ui.PrintHint("(quiet)")
		case domain.ResultExit:
			if a.ear != nil {
				a.ear.Mute()
			}
			a.say(res.Text)
			a.waitForSilence(ctx)
			return
		}
	}
}

// waitForSilence lets the farewell finish, up to farewellWait.
func (a *cliApp) waitForSilence(ctx context.Context) {
	deadline := time.Now().Add(farewellWait)
	for a.speaker.IsSpeaking() && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}
