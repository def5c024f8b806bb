package speech

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
)

// StopPhrases silence the assistant. The dispatcher treats them as an
// interrupt, and while speech plays the ear forwards only utterances that
// contain one of them; anything else heard during playback is echo.
var StopPhrases = []string{
	"ok i got it", "ok done", "okay done", "alright done",
	"stop", "shush", "quiet", "cancel", "hold on", "enough",
	"wait", "pause", "shut up",
}

// whisper annotations like "(keyboard clicking)", "[BLANK_AUDIO]" or a
// "[00:00:00.000 --> 00:00:02.000]" timestamp prefix.
var (
	envAnnotation   = regexp.MustCompile(`[\(\[][A-Za-z][A-Za-z_\s]*[\)\]]`)
	timestampPrefix = regexp.MustCompile(`^\[[0-9:.\s\->]+\]\s*`)
	spaceCollapse   = regexp.MustCompile(`\s+`)
)

// Whole-utterance hallucinations whisper produces on near-silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
	"the end.":                true,
}

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithRecordDuration sets how long each recording chunk lasts.
func WithRecordDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.recordDuration = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) EarOption {
	return func(e *Ear) { e.tempDir = dir }
}

// WithUtteranceTimeout caps how long one utterance may accumulate.
func WithUtteranceTimeout(d time.Duration) EarOption {
	return func(e *Ear) { e.utteranceTimeout = d }
}

// WithBargeIn makes the ear aware of playback: while speaker is talking
// only utterances containing one of phrases are forwarded.
func WithBargeIn(speaker domain.Speaker, phrases ...string) EarOption {
	return func(e *Ear) {
		e.speaker = speaker
		if len(phrases) > 0 {
			e.bargeIn = phrases
		}
	}
}

// Ear turns microphone input into text using a local Whisper model. It
// records short chunks, joins them into an utterance until the speaker
// pauses, and sends each utterance on C.
type Ear struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *logger.Logger
	speaker    domain.Speaker // optional, enables barge-in filtering
	bargeIn    []string

	recordDuration   time.Duration
	utteranceTimeout time.Duration

	mu     sync.Mutex
	muted  bool
	textCh chan string
}

// NewEar creates a voice input listener.
func NewEar(whisperBin, modelPath string, log *logger.Logger, opts ...EarOption) *Ear {
	e := &Ear{
		whisperBin:       whisperBin,
		modelPath:        modelPath,
		tempDir:          ".viki-stt",
		log:              log,
		bargeIn:          StopPhrases,
		recordDuration:   2 * time.Second,
		utteranceTimeout: 15 * time.Second,
		textCh:           make(chan string, 8),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := exec.LookPath(e.whisperBin); err != nil {
		log.Error("ear: whisper binary %q not found in PATH: %v", e.whisperBin, err)
	}
	return e
}

// C returns the channel that receives transcribed utterances.
func (e *Ear) C() <-chan string {
	return e.textCh
}

// Mute pauses listening.
func (e *Ear) Mute() {
	e.mu.Lock()
	e.muted = true
	e.mu.Unlock()
	e.log.Debug("ear: muted")
}

// Unmute resumes listening.
func (e *Ear) Unmute() {
	e.mu.Lock()
	e.muted = false
	e.mu.Unlock()
	e.log.Debug("ear: unmuted")
}

func (e *Ear) isMuted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// Run listens until ctx is cancelled. Call it in a goroutine.
func (e *Ear) Run(ctx context.Context) {
	e.log.Info("ear: started (chunk=%s, timeout=%s)", e.recordDuration, e.utteranceTimeout)
	for {
		select {
		case <-ctx.Done():
			e.log.Info("ear: stopped")
			return
		default:
		}

		if e.isMuted() {
			time.Sleep(200 * time.Millisecond)
			continue
		}

		text := e.listenUtterance(ctx)
		if text == "" {
			continue
		}
		if !e.accept(text) {
			e.log.Debug("ear: ignoring %q during playback", text)
			continue
		}

		e.log.Info("ear: heard %q", text)
		select {
		case e.textCh <- text:
		case <-ctx.Done():
			return
		}
	}
}

// accept applies barge-in filtering while the speaker is talking.
func (e *Ear) accept(text string) bool {
	if e.speaker == nil || !e.speaker.IsSpeaking() {
		return true
	}
	return containsPhrase(text, e.bargeIn)
}

// listenUtterance records chunks until speech is followed by a silent
// chunk, the timeout expires, or nothing is said at all.
func (e *Ear) listenUtterance(ctx context.Context) string {
	deadline := time.Now().Add(e.utteranceTimeout)
	var parts []string

	for time.Now().Before(deadline) {
		chunk := cleanTranscription(e.recordChunk(ctx, e.recordDuration))
		if ctx.Err() != nil {
			return ""
		}
		if chunk == "" {
			break
		}
		e.log.Debug("ear: chunk %q", chunk)
		parts = append(parts, chunk)
		// A barge-in phrase shouldn't wait for the speaker to pause.
		if e.speaker != nil && e.speaker.IsSpeaking() && containsPhrase(chunk, e.bargeIn) {
			break
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// recordChunk records for duration and returns the raw transcription.
func (e *Ear) recordChunk(ctx context.Context, duration time.Duration) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := e.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(e.whisperBin, e.modelPath, e.tempDir, "wav", callback, verbose)
	if err != nil {
		e.log.Error("ear: transcriber init failed: %v", err)
		sleepCtx(ctx, 2*time.Second)
		return ""
	}
	if err := t.Start(); err != nil {
		e.log.Error("ear: recording start failed: %v", err)
		sleepCtx(ctx, 2*time.Second)
		return ""
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}
	t.Stop()
	wg.Wait()
	return result
}

// cleanTranscription removes whisper artifacts and known hallucinations.
func cleanTranscription(s string) string {
	s = timestampPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	s = envAnnotation.ReplaceAllString(s, "")
	s = strings.TrimSpace(spaceCollapse.ReplaceAllString(s, " "))
	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}

// containsPhrase reports whether text contains any phrase as whole words.
func containsPhrase(text string, phrases []string) bool {
	padded := " " + strings.ToLower(strings.Trim(text, " .,!?")) + " "
	padded = strings.NewReplacer(",", " ", ".", " ", "!", " ", "?", " ").Replace(padded)
	for _, p := range phrases {
		if strings.Contains(padded, " "+strings.ToLower(p)+" ") {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
