// Package ai provides the chat fallback: a guarded conversation history
// and a client for Gemini or OpenAI-compatible chat endpoints.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hammamikhairi/viki/internal/domain"
	"github.com/hammamikhairi/viki/internal/logger"
)

// Providers understood by the client.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// Failure classes. Reply turns each into a different spoken message.
var (
	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = errors.New("ai: transport")
	// ErrDecode means the response body was not valid JSON.
	ErrDecode = errors.New("ai: decode")
	// ErrEmptyReply means the response parsed but held no text.
	ErrEmptyReply = errors.New("ai: empty reply")
)

// ── Wire types ───────────────────────────────────────────────────

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Content is an OpenAI content block.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Message is an OpenAI chat-completion message.
type Message struct {
	Role    string    `json:"role"`
	Content []Content `json:"content"`
}

type openAIRequest struct {
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Model       string    `json:"model,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ── Client ───────────────────────────────────────────────────────

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithProvider selects ProviderGemini (default) or ProviderOpenAI.
func WithProvider(p string) ClientOption {
	return func(c *Client) { c.provider = p }
}

// WithEndpoint overrides the request URL.
func WithEndpoint(url string) ClientOption {
	return func(c *Client) { c.endpoint = url }
}

// WithModel overrides the model name.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithHTTPTimeout sets the HTTP client timeout.
func WithHTTPTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRequestsPerMinute paces outgoing requests. Zero disables pacing.
func WithRequestsPerMinute(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		} else {
			c.limiter = nil
		}
	}
}

// Client sends a conversation to a chat model and returns its reply.
type Client struct {
	provider string
	endpoint string
	apiKey   string
	model    string
	http     *http.Client
	limiter  *rate.Limiter
	log      *logger.Logger
}

// NewClient creates a chat client. The endpoint defaults to the public
// Gemini generateContent URL for the configured model.
func NewClient(apiKey string, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		provider: ProviderGemini,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		log:      log,
	}
	for _, o := range opts {
		o(c)
	}
	if c.provider == ProviderGemini {
		if c.model == "" {
			c.model = DefaultGeminiModel
		}
		if c.endpoint == "" {
			c.endpoint = fmt.Sprintf(geminiEndpoint, c.model)
		}
	}
	return c
}

// Chat sends the whole conversation and returns the model's reply text.
func (c *Client) Chat(ctx context.Context, turns []domain.Turn) (string, error) {
	if c.endpoint == "" {
		return "", fmt.Errorf("%w: no endpoint configured", ErrTransport)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}

	var body any
	if c.provider == ProviderOpenAI {
		body = c.openAIPayload(turns)
	} else {
		body = geminiPayload(turns)
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		if c.provider == ProviderOpenAI {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("api-key", c.apiKey)
		} else {
			req.Header.Set("x-goog-api-key", c.apiKey)
		}
	}

	c.log.Debug("ai: POST %s (%d turns, %d bytes)", c.provider, len(turns), len(jsonData))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s: %s", ErrTransport, resp.Status, truncate(string(respBody), 200))
	}

	var reply string
	if c.provider == ProviderOpenAI {
		reply, err = parseOpenAI(respBody)
	} else {
		reply, err = parseGemini(respBody)
	}
	if err != nil {
		return "", err
	}
	c.log.Debug("ai: reply (%d chars): %s", len(reply), truncate(reply, 120))
	return reply, nil
}

func geminiPayload(turns []domain.Turn) geminiRequest {
	req := geminiRequest{Contents: make([]geminiContent, 0, len(turns))}
	for _, t := range turns {
		req.Contents = append(req.Contents, geminiContent{
			Role:  t.Role,
			Parts: []geminiPart{{Text: t.Text}},
		})
	}
	return req
}

func (c *Client) openAIPayload(turns []domain.Turn) openAIRequest {
	req := openAIRequest{
		Messages:    make([]Message, 0, len(turns)),
		Temperature: 0.7,
		MaxTokens:   800,
		Model:       c.model,
	}
	for _, t := range turns {
		role := t.Role
		if role == domain.RoleModel {
			role = "assistant"
		}
		req.Messages = append(req.Messages, Message{
			Role:    role,
			Content: []Content{{Type: "text", Text: t.Text}},
		})
	}
	return req
}

func parseGemini(body []byte) (string, error) {
	var r geminiResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyReply
	}
	return r.Candidates[0].Content.Parts[0].Text, nil
}

func parseOpenAI(body []byte) (string, error) {
	var r openAIResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(r.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return r.Choices[0].Message.Content, nil
}

// truncate shortens s to maxLen runes for logging.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
