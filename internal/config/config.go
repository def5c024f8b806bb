// Package config loads the assistant's settings from a YAML file, then
// applies VIKI_* environment overrides. Command-line flags are applied
// on top by cmd/viki.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/viki/internal/ai"
	"github.com/hammamikhairi/viki/internal/conversation"
	"github.com/hammamikhairi/viki/internal/speech"
	"github.com/hammamikhairi/viki/internal/storage"
)

// DefaultPath is read when no -config flag is given. It may be absent.
const DefaultPath = "viki.yaml"

// SpeechConfig is the TTS backend plus controller tuning.
type SpeechConfig struct {
	speech.Config    `yaml:",inline"`
	HandoffTimeoutMS int `yaml:"handoff_timeout_ms"`
}

// HandoffTimeout returns the configured bound on waiting for an
// outgoing utterance.
func (c SpeechConfig) HandoffTimeout() time.Duration {
	return time.Duration(c.HandoffTimeoutMS) * time.Millisecond
}

type AIConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Provider          string `yaml:"provider"`
	Endpoint          string `yaml:"endpoint"`
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	TimeoutSecs       int    `yaml:"timeout_secs"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	MaxHistory        int    `yaml:"max_history"`
}

type CommandsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

type LanguageConfig struct {
	Default string `yaml:"default"`
}

type VoiceInputConfig struct {
	Enabled      bool   `yaml:"enabled"`
	WhisperBin   string `yaml:"whisper_bin"`
	WhisperModel string `yaml:"whisper_model"`
	RecordSecs   int    `yaml:"record_secs"`
	BargeIn      bool   `yaml:"barge_in"`
	TempDir      string `yaml:"temp_dir"`

	// UtteranceTimeoutSecs caps how long one utterance may keep growing.
	UtteranceTimeoutSecs int `yaml:"utterance_timeout_secs"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Config struct {
	Speech     SpeechConfig     `yaml:"speech"`
	AI         AIConfig         `yaml:"ai"`
	Commands   CommandsConfig   `yaml:"commands"`
	Language   LanguageConfig   `yaml:"language"`
	VoiceInput VoiceInputConfig `yaml:"voice_input"`
	Log        LogConfig        `yaml:"log"`
}

func Default() Config {
	return Config{
		Speech: SpeechConfig{
			Config:           speech.DefaultConfig(),
			HandoffTimeoutMS: int(speech.DefaultHandoffTimeout / time.Millisecond),
		},
		AI: AIConfig{
			Enabled:           true,
			Provider:          ai.ProviderGemini,
			Model:             ai.DefaultGeminiModel,
			TimeoutSecs:       30,
			RequestsPerMinute: 30,
			MaxHistory:        50,
		},
		Commands: CommandsConfig{
			Path:  storage.DefaultCommandsFile,
			Watch: true,
		},
		Language: LanguageConfig{
			Default: conversation.DefaultLanguage,
		},
		VoiceInput: VoiceInputConfig{
			WhisperBin:   "whisper-cli",
			WhisperModel: "bin/ggml-small.bin",
			RecordSecs:   2,
			BargeIn:      true,
			TempDir:      ".viki-stt",

			UtteranceTimeoutSecs: 15,
		},
		Log: LogConfig{
			Level: "info",
			File:  ".viki-logs/viki.log",
		},
	}
}

// Load reads path over the defaults. A missing file is only an error
// when it was asked for explicitly, i.e. path is not DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Speech.Backend, "VIKI_TTS_BACKEND")
	overrideString(&cfg.Speech.Command, "VIKI_TTS_COMMAND")
	overrideString(&cfg.Speech.SynthCommand, "VIKI_TTS_SYNTH_COMMAND")
	overrideInt(&cfg.Speech.Rate, "VIKI_TTS_RATE")
	overrideFloat(&cfg.Speech.Volume, "VIKI_TTS_VOLUME")
	overrideInt(&cfg.Speech.HandoffTimeoutMS, "VIKI_TTS_HANDOFF_TIMEOUT_MS")
	overrideString(&cfg.Speech.CacheDir, "VIKI_TTS_CACHE_DIR")
	overrideString(&cfg.Speech.AzureKey, speech.EnvAzureSpeechKey)
	overrideString(&cfg.Speech.AzureRegion, speech.EnvAzureSpeechRegion)

	overrideBool(&cfg.AI.Enabled, "VIKI_AI_ENABLED")
	overrideString(&cfg.AI.Provider, "VIKI_AI_PROVIDER")
	overrideString(&cfg.AI.Endpoint, "VIKI_AI_ENDPOINT")
	overrideString(&cfg.AI.APIKey, "GEMINI_API_KEY")
	overrideString(&cfg.AI.APIKey, "VIKI_AI_API_KEY")
	overrideString(&cfg.AI.Model, "VIKI_AI_MODEL")
	overrideInt(&cfg.AI.RequestsPerMinute, "VIKI_AI_REQUESTS_PER_MINUTE")

	overrideString(&cfg.Commands.Path, "VIKI_COMMANDS_PATH")
	overrideBool(&cfg.Commands.Watch, "VIKI_COMMANDS_WATCH")
	overrideString(&cfg.Language.Default, "VIKI_LANGUAGE")

	overrideBool(&cfg.VoiceInput.Enabled, "VIKI_VOICE_INPUT")
	overrideString(&cfg.VoiceInput.WhisperBin, "VIKI_WHISPER_BIN")
	overrideString(&cfg.VoiceInput.WhisperModel, "VIKI_WHISPER_MODEL")
	overrideString(&cfg.VoiceInput.TempDir, "VIKI_WHISPER_TEMP_DIR")

	overrideString(&cfg.Log.Level, "VIKI_LOG_LEVEL")
	overrideString(&cfg.Log.File, "VIKI_LOG_FILE")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if err := c.Speech.Config.Validate(); err != nil {
		return err
	}
	if c.Speech.HandoffTimeoutMS <= 0 {
		return errors.New("config: speech.handoff_timeout_ms must be positive")
	}
	if c.AI.Enabled {
		switch c.AI.Provider {
		case ai.ProviderGemini:
		case ai.ProviderOpenAI:
			if c.AI.Endpoint == "" {
				return errors.New("config: ai.endpoint must be set when provider=openai")
			}
		default:
			return fmt.Errorf("config: ai.provider must be %s or %s", ai.ProviderGemini, ai.ProviderOpenAI)
		}
		if c.AI.RequestsPerMinute < 0 {
			return errors.New("config: ai.requests_per_minute must be >= 0")
		}
	}
	if c.Commands.Path == "" {
		return errors.New("config: commands.path must not be empty")
	}
	if _, ok := conversation.LookupLanguage(c.Language.Default); !ok {
		return fmt.Errorf("config: unsupported language %q", c.Language.Default)
	}
	if c.VoiceInput.Enabled && c.VoiceInput.RecordSecs <= 0 {
		return errors.New("config: voice_input.record_secs must be positive")
	}
	if c.VoiceInput.Enabled && c.VoiceInput.UtteranceTimeoutSecs < c.VoiceInput.RecordSecs {
		return errors.New("config: voice_input.utterance_timeout_secs must cover at least one recording")
	}
	return nil
}
