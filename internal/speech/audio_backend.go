package speech

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
	"github.com/mattn/go-shellwords"
)

// Compile-time interface checks.
var (
	_ Backend  = (*AudioBackend)(nil)
	_ Resetter = (*AudioBackend)(nil)
	_ Renderer = (*CommandRenderer)(nil)
)

// DefaultSynthCommand renders WAV to stdout with piper, reading the
// sentence from stdin.
const DefaultSynthCommand = "piper --model {voice} --length_scale {scale} --output_file -"

// Renderer turns one sentence into a WAV clip.
type Renderer interface {
	Render(ctx context.Context, voice string, rate int, text string) ([]byte, error)
}

// clipPlayer is the part of Player the backend needs.
type clipPlayer interface {
	Play(ctx context.Context, wav []byte) error
	Stop()
	SetVolume(v float64)
}

// AudioBackend renders each sentence to WAV, caches the clip and plays
// it through a Player. Unlike ExecBackend the audio device is ours, so
// Stop cuts playback at once.
type AudioBackend struct {
	renderer Renderer
	voices   []Voice
	player   clipPlayer
	cache    *AudioCache
	log      *logger.Logger

	mu      sync.Mutex
	rate    int
	voice   string
	pending string
	cancel  context.CancelFunc
}

// NewAudioBackend creates a backend. Each entry of voiceIDs becomes a
// selectable voice; the first is the default. cache may be nil.
func NewAudioBackend(renderer Renderer, voiceIDs []string, player clipPlayer, cache *AudioCache, log *logger.Logger) *AudioBackend {
	b := &AudioBackend{
		renderer: renderer,
		player:   player,
		cache:    cache,
		log:      log,
		rate:     DefaultRate,
	}
	for _, id := range voiceIDs {
		b.voices = append(b.voices, voiceFromID(id))
	}
	if len(b.voices) > 0 {
		b.voice = b.voices[0].ID
	}
	return b
}

// voiceFromID derives a Voice from a model path such as
// "voices/es_ES-davefx-medium.onnx" or a service voice name such as
// "es-ES-ElviraNeural". The language is the leading segment.
func voiceFromID(id string) Voice {
	name := strings.TrimSuffix(filepath.Base(id), ".onnx")
	lang, _, _ := strings.Cut(name, "-")
	return Voice{ID: id, Name: name, Languages: []string{lang}}
}

// ConfigureRate sets words per minute.
func (b *AudioBackend) ConfigureRate(wpm int) error {
	if wpm <= 0 {
		return fmt.Errorf("tts: invalid rate %d", wpm)
	}
	b.mu.Lock()
	b.rate = wpm
	b.mu.Unlock()
	return nil
}

// ConfigureVolume sets playback volume, clamped to [0, 1].
func (b *AudioBackend) ConfigureVolume(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("tts: invalid volume")
	}
	b.player.SetVolume(math.Max(0, math.Min(1, v)))
	return nil
}

// ListVoices returns the configured voices.
func (b *AudioBackend) ListVoices() ([]Voice, error) {
	if len(b.voices) == 0 {
		return nil, domain.ErrNoVoices
	}
	out := make([]Voice, len(b.voices))
	copy(out, b.voices)
	return out, nil
}

// SelectVoice switches to a configured voice.
func (b *AudioBackend) SelectVoice(id string) error {
	for _, v := range b.voices {
		if v.ID == id {
			b.mu.Lock()
			b.voice = id
			b.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("tts: voice %q: %w", id, domain.ErrNotFound)
}

// Say queues a sentence for the next RunAndWait.
func (b *AudioBackend) Say(sentence string) error {
	b.mu.Lock()
	b.pending = sentence
	b.mu.Unlock()
	return nil
}

// RunAndWait renders (or fetches from cache) and plays the queued
// sentence. Cancellation by Stop is not an error.
func (b *AudioBackend) RunAndWait() error {
	b.mu.Lock()
	text := b.pending
	b.pending = ""
	voice, rate := b.voice, b.rate
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.mu.Unlock()
	defer cancel()

	if text == "" {
		return nil
	}

	wav, err := b.render(ctx, voice, rate, text)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	return b.player.Play(ctx, wav)
}

// Stop cancels rendering and cuts playback.
func (b *AudioBackend) Stop() error {
	b.mu.Lock()
	b.pending = ""
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	b.player.Stop()
	return nil
}

// Reset drops pending state after a fault.
func (b *AudioBackend) Reset() error {
	return b.Stop()
}

func (b *AudioBackend) render(ctx context.Context, voice string, rate int, text string) ([]byte, error) {
	cacheVoice := voice + "@" + strconv.Itoa(rate)
	if b.cache != nil {
		if wav, ok := b.cache.Get(cacheVoice, text); ok {
			return wav, nil
		}
	}

	wav, err := b.renderer.Render(ctx, voice, rate, text)
	if err != nil {
		return nil, err
	}
	b.log.Debug("tts: rendered %d bytes for %q", len(wav), truncate(text, 40))

	if b.cache != nil {
		b.cache.Put(cacheVoice, text, wav)
	}
	return wav, nil
}

// ── command renderer ─────────────────────────────────────────────

// CommandRenderer runs a local synthesizer that writes WAV to stdout.
// Template placeholders: {voice} (model path), {rate} (words per minute),
// {scale} (piper length scale for the rate) and {text}. Without {text}
// the sentence is written to the program's stdin.
type CommandRenderer struct {
	argv []string
}

// NewCommandRenderer parses and checks a synth command line.
func NewCommandRenderer(command string) (*CommandRenderer, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultSynthCommand
	}
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("tts: parsing synth command: %w", err)
	}
	if len(argv) == 0 {
		return nil, domain.ErrEmptyCommand
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("tts: %s: %w", argv[0], domain.ErrBackendUnavailable)
	}
	return &CommandRenderer{argv: argv}, nil
}

// Render runs the synthesizer. Cancelling ctx kills it.
func (r *CommandRenderer) Render(ctx context.Context, voice string, rate int, text string) ([]byte, error) {
	argv, viaArg := r.expand(voice, rate, text)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if !viaArg {
		cmd.Stdin = strings.NewReader(text)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	wav, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return wav, nil
}

// expand fills the template and reports whether {text} was used.
func (r *CommandRenderer) expand(voice string, rate int, text string) ([]string, bool) {
	if rate <= 0 {
		rate = DefaultRate
	}
	scale := float64(DefaultRate) / float64(rate)
	repl := strings.NewReplacer(
		"{voice}", voice,
		"{rate}", strconv.Itoa(rate),
		"{scale}", strconv.FormatFloat(scale, 'f', 2, 64),
	)
	viaArg := false
	argv := make([]string, 0, len(r.argv))
	for _, arg := range r.argv {
		if strings.Contains(arg, "{text}") {
			viaArg = true
			argv = append(argv, strings.ReplaceAll(arg, "{text}", text))
			continue
		}
		argv = append(argv, repl.Replace(arg))
	}
	return argv, viaArg
}
