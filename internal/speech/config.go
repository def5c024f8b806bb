package speech

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/viki/internal/logger"
)

// Backend names accepted in Config.Backend.
const (
	BackendExec  = "exec"
	BackendAudio = "audio"
	BackendAzure = "azure"
	BackendNone  = "none"
)

// Audio parameters for piper's medium voices.
const (
	DefaultSampleRate   = 22050
	DefaultChannelCount = 1
)

// Config selects and tunes the TTS backend.
type Config struct {
	Backend string  `yaml:"backend"`
	Rate    int     `yaml:"rate"`
	Volume  float64 `yaml:"volume"`

	// exec backend
	Command       string `yaml:"command"`
	VoicesCommand string `yaml:"voices_command"`

	// audio and azure backends
	SynthCommand string   `yaml:"synth_command"`
	Voices       []string `yaml:"voices"`
	SampleRate   int      `yaml:"sample_rate"`
	Channels     int      `yaml:"channels"`
	CacheDir     string   `yaml:"cache_dir"`
	CacheWrite   bool     `yaml:"cache_write"`
	CacheItems   int      `yaml:"cache_items"`

	// azure backend; the key normally comes from AZURE_SPEECH_KEY
	AzureKey    string `yaml:"azure_key"`
	AzureRegion string `yaml:"azure_region"`
}

// DefaultConfig returns the espeak-ng setup.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendExec,
		Rate:          DefaultRate,
		Volume:        DefaultVolume,
		Command:       DefaultSayCommand,
		VoicesCommand: DefaultVoicesCommand,
		SynthCommand:  DefaultSynthCommand,
		SampleRate:    DefaultSampleRate,
		Channels:      DefaultChannelCount,
		CacheItems:    256,
	}
}

// Validate checks values that would make the engine misbehave.
func (c Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendExec, BackendAudio, BackendAzure, BackendNone, "":
	default:
		return fmt.Errorf("tts: unknown backend %q", c.Backend)
	}
	if c.Rate < 0 {
		return fmt.Errorf("tts: rate must be positive, got %d", c.Rate)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return fmt.Errorf("tts: volume must be in [0, 1], got %.2f", c.Volume)
	}
	if strings.EqualFold(c.Backend, BackendAzure) && (c.AzureKey == "" || c.AzureRegion == "") {
		return fmt.Errorf("tts: azure backend needs %s and %s", EnvAzureSpeechKey, EnvAzureSpeechRegion)
	}
	return nil
}

// NewEngineFromConfig builds the configured backend. When it can't be
// initialized the failure is logged and a disabled engine is returned, so
// the assistant keeps working as a text-only tool.
func NewEngineFromConfig(cfg Config, log *logger.Logger) *Engine {
	var (
		backend Backend
		err     error
	)

	switch strings.ToLower(cfg.Backend) {
	case BackendNone:
		log.Info("tts: disabled by config")
	case BackendAudio, BackendAzure:
		backend, err = newAudioFromConfig(cfg, log)
	default:
		backend, err = NewExecBackend(cfg.Command, cfg.VoicesCommand, log)
	}
	if err != nil {
		log.Error("tts: %v; continuing without speech", err)
		backend = nil
	}

	var opts []EngineOption
	if backend != nil {
		if cfg.Rate > 0 {
			opts = append(opts, WithRate(cfg.Rate))
		}
		opts = append(opts, WithVolume(cfg.Volume))
	}
	return NewEngine(backend, log, opts...)
}

func newAudioFromConfig(cfg Config, log *logger.Logger) (Backend, error) {
	rate, channels := cfg.SampleRate, cfg.Channels
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannelCount
	}

	var renderer Renderer
	if strings.EqualFold(cfg.Backend, BackendAzure) {
		renderer = NewAzureRenderer(cfg.AzureKey, cfg.AzureRegion, log,
			WithAudioFormat(fmt.Sprintf("riff-%dhz-16bit-mono-pcm", rate)))
	} else {
		r, err := NewCommandRenderer(cfg.SynthCommand)
		if err != nil {
			return nil, err
		}
		renderer = r
	}

	player, err := NewPlayer(rate, channels, log)
	if err != nil {
		return nil, err
	}
	cache := NewAudioCache(cfg.CacheDir, cfg.CacheWrite, cfg.CacheItems, log)
	return NewAudioBackend(renderer, cfg.Voices, player, cache, log), nil
}
