package speech

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hammamikhairi/viki/internal/logger"
)

// Compile-time interface check.
var _ Renderer = (*AzureRenderer)(nil)

// Env var names for Azure Speech credentials.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)

// Azure output format matching DefaultSampleRate mono PCM.
const DefaultAzureFormat = "riff-22050hz-16bit-mono-pcm"

// AzureOption configures the Azure renderer.
type AzureOption func(*AzureRenderer)

// WithAudioFormat sets the X-Microsoft-OutputFormat header.
func WithAudioFormat(format string) AzureOption {
	return func(r *AzureRenderer) {
		r.format = format
	}
}

// WithHTTPTimeout sets the HTTP client timeout for synthesis requests.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(r *AzureRenderer) {
		r.httpClient.Timeout = d
	}
}

// WithEndpoint overrides the regional endpoint, mostly for tests.
func WithEndpoint(url string) AzureOption {
	return func(r *AzureRenderer) {
		r.endpoint = url
	}
}

// AzureRenderer synthesizes speech with Azure Cognitive Services. Voice
// IDs are service voice names such as "es-ES-ElviraNeural".
type AzureRenderer struct {
	key        string
	endpoint   string
	format     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewAzureRenderer creates a renderer for the given key and region.
func NewAzureRenderer(key, region string, log *logger.Logger, opts ...AzureOption) *AzureRenderer {
	r := &AzureRenderer{
		key:        key,
		endpoint:   fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		format:     DefaultAzureFormat,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render posts SSML for the sentence and returns the WAV response.
func (r *AzureRenderer) Render(ctx context.Context, voice string, rate int, text string) ([]byte, error) {
	ssml := buildSSML(voice, rate, text)
	r.log.Debug("azure tts: %d chars with voice %s", len(text), voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", r.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", r.format)
	req.Header.Set("User-Agent", "Viki/1.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, string(body))
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}
	return wav, nil
}

// buildSSML wraps the escaped sentence in a voice and prosody element.
// The document language is taken from the voice name.
func buildSSML(voice string, rate int, text string) string {
	lang := "en-US"
	if parts := strings.SplitN(voice, "-", 3); len(parts) == 3 {
		lang = parts[0] + "-" + parts[1]
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	pct := (rate - DefaultRate) * 100 / DefaultRate

	var esc strings.Builder
	_ = xml.EscapeText(&esc, []byte(text))

	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'><prosody rate='%+d%%'>%s</prosody></voice></speak>`,
		lang, lang, voice, pct, esc.String(),
	)
}
