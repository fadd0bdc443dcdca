package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/learn-coach-api/pkg/config"
)

// Client is the language-model collaborator. Implementations must honor the
// context deadline; callers always carry a deterministic fallback, so errors
// from Generate are recoverable by design.
type Client interface {
	Generate(ctx context.Context, system, prompt string) (json.RawMessage, error)
	Enabled() bool
}

// HTTPClient talks to an OpenAI-compatible chat-completions endpoint.
type HTTPClient struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	httpClient  *http.Client
	logger      *zap.Logger
	enabled     bool
}

// NewHTTPClient builds the collaborator client from config.
func NewHTTPClient(cfg config.AIConfig, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
		enabled:     cfg.Enabled && cfg.APIKey != "",
	}
}

// Enabled reports whether the collaborator is configured for use.
func (c *HTTPClient) Enabled() bool {
	return c != nil && c.enabled
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends a structured prompt and returns the JSON object embedded in
// the model's reply. The response is untrusted: callers must unmarshal into a
// typed schema and validate every field before acting on it.
func (c *HTTPClient) Generate(ctx context.Context, system, prompt string) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ai collaborator disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload := chatRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completion call: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chat completion status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("chat completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	extracted, err := ExtractJSON(content)
	if err != nil {
		return nil, err
	}
	return extracted, nil
}

// ExtractJSON pulls the first JSON object out of a model reply. Models often
// wrap JSON in prose or markdown fences, so the braces are located manually
// and the slice is verified to be valid JSON before returning.
func ExtractJSON(content string) (json.RawMessage, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object in model reply")
	}
	candidate := []byte(content[start : end+1])
	if !json.Valid(candidate) {
		return nil, fmt.Errorf("model reply is not valid JSON")
	}
	return json.RawMessage(candidate), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
