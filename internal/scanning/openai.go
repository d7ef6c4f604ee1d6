package scanning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIURL = "https://api.openai.com/v1"

// OpenAI implements the Scanner interface using an OpenAI compatible chat/completions endpoint
type OpenAI struct {
	cfg    ModelConfig
	client *http.Client
}

// NewOpenAI creates a new OpenAI Scanner instance.
// An empty API key is accepted; Scan then fails with ErrAuthConfiguration.
func NewOpenAI(cfg ModelConfig) *OpenAI {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}

	return &OpenAI{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIMessage struct {
	Role    string              `json:"role"`
	Content []openAIContentPart `json:"content"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Scan sends the prompt and image in a single user message
func (o *OpenAI) Scan(ctx context.Context, prompt Prompt) (string, error) {
	if o.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: openai api key is not configured", ErrAuthConfiguration)
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	reqBody := openAIChatRequest{
		Model: o.cfg.Model,
		Messages: []openAIMessage{
			{
				Role: "user",
				Content: []openAIContentPart{
					{Type: "text", Text: prompt.Instruction},
					{Type: "image_url", ImageURL: &openAIImageURL{URL: prompt.ImageURL, Detail: "high"}},
				},
			},
		},
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: calling openai API: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %w", ErrUpstream, err)
	}

	slog.Debug("OpenAI response received",
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if err := classifyStatus("openai", resp.StatusCode, body); err != nil {
		return "", err
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", ErrUpstream, err)
	}
	if len(chatResp.Choices) == 0 {
		return "", upstreamError("no choices in openai response")
	}

	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", upstreamError("empty content in openai response")
	}
	return text, nil
}

// Close is a no-op for the HTTP client
func (o *OpenAI) Close() error {
	return nil
}

// classifyStatus maps a non-2xx provider status to the error taxonomy
func classifyStatus(provider string, status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s API rejected credentials (status %d): %s", ErrAuthConfiguration, provider, status, truncate(body, 512))
	case status < 200 || status >= 300:
		return upstreamError("%s API error (status %d): %s", provider, status, truncate(body, 512))
	}
	return nil
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
