package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "viki.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if got := Default().Speech.HandoffTimeout(); got != 100*time.Millisecond {
		t.Errorf("handoff timeout = %s, want 100ms", got)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeConfig(t, `
speech:
  backend: none
  rate: 150
  handoff_timeout_ms: 250
ai:
  provider: openai
  endpoint: http://localhost:9999/v1/chat/completions
language:
  default: fr-FR
commands:
  path: /tmp/cmds.json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Speech.Backend != "none" || cfg.Speech.Rate != 150 {
		t.Errorf("speech = %+v", cfg.Speech.Config)
	}
	if cfg.Speech.HandoffTimeout() != 250*time.Millisecond {
		t.Errorf("handoff = %s", cfg.Speech.HandoffTimeout())
	}
	if cfg.Speech.Command == "" {
		t.Error("unset keys should keep their defaults")
	}
	if cfg.AI.Provider != "openai" || cfg.Language.Default != "fr-FR" || cfg.Commands.Path != "/tmp/cmds.json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestVoiceInputFromFile(t *testing.T) {
	path := writeConfig(t, `
voice_input:
  temp_dir: /tmp/viki-stt
  utterance_timeout_secs: 30
`)
	t.Setenv("VIKI_WHISPER_TEMP_DIR", "/var/tmp/stt")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VoiceInput.UtteranceTimeoutSecs != 30 {
		t.Errorf("utterance timeout = %d, want 30", cfg.VoiceInput.UtteranceTimeoutSecs)
	}
	if cfg.VoiceInput.TempDir != "/var/tmp/stt" {
		t.Errorf("temp dir = %q, want the env value", cfg.VoiceInput.TempDir)
	}
	if cfg.VoiceInput.RecordSecs != 2 {
		t.Errorf("record secs = %d, want default 2", cfg.VoiceInput.RecordSecs)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "speech:\n  rate: 150\n")
	t.Setenv("VIKI_TTS_RATE", "220")
	t.Setenv("VIKI_LANGUAGE", "de-DE")
	t.Setenv("VIKI_AI_API_KEY", "k")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Speech.Rate != 220 || cfg.Language.Default != "de-DE" || cfg.AI.APIKey != "k" {
		t.Errorf("rate=%d lang=%s key=%q", cfg.Speech.Rate, cfg.Language.Default, cfg.AI.APIKey)
	}
}

func TestMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load(DefaultPath); err != nil {
		t.Errorf("missing default file should fall back to defaults: %v", err)
	}
	if _, err := Load("elsewhere.yaml"); err == nil {
		t.Error("missing explicit file should fail")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := map[string]func(*Config){
		"provider":  func(c *Config) { c.AI.Provider = "llama" },
		"openai":    func(c *Config) { c.AI.Provider = "openai"; c.AI.Endpoint = "" },
		"language":  func(c *Config) { c.Language.Default = "xx-YY" },
		"handoff":   func(c *Config) { c.Speech.HandoffTimeoutMS = 0 },
		"backend":   func(c *Config) { c.Speech.Backend = "festival" },
		"volume":    func(c *Config) { c.Speech.Volume = 3 },
		"commands":  func(c *Config) { c.Commands.Path = "" },
		"recording": func(c *Config) { c.VoiceInput.Enabled = true; c.VoiceInput.RecordSecs = 0 },
		"utterance": func(c *Config) { c.VoiceInput.Enabled = true; c.VoiceInput.UtteranceTimeoutSecs = 1 },
	}
	for name, mutate := range tests {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() = nil, want error", name)
		}
	}
}

func TestMalformedYAML(t *testing.T) {
	path := writeConfig(t, "speech: [oops\n")
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should fail")
	}
}
