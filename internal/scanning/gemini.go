package scanning

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// geminiThinkingAllowance is added to the reply budget because 2.5 models spend
// output tokens on thinking before any text is produced
const geminiThinkingAllowance = 8192

// Gemini implements the Scanner interface using Google Gemini
type Gemini struct {
	cfg    ModelConfig
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Scanner instance.
// Without an API key no client is created and Scan fails with ErrAuthConfiguration.
func NewGemini(cfg ModelConfig) (*Gemini, error) {
	cfg = cfg.withDefaults()
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-pro"
	}

	g := &Gemini{cfg: cfg}
	if cfg.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(geminiOutputTokens(cfg.MaxTokens))

	g.client = client
	g.model = model
	return g, nil
}

// Scan sends the image and instruction as a single content request
func (g *Gemini) Scan(ctx context.Context, prompt Prompt) (string, error) {
	if g.model == nil {
		return "", fmt.Errorf("%w: gemini api key is not configured", ErrAuthConfiguration)
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	// genai.ImageData expects just the format suffix (e.g., "png"), not the full MIME type
	format := strings.TrimPrefix(prompt.Image.ContentType, "image/")
	parts := []genai.Part{
		genai.ImageData(format, prompt.Image.Data),
		genai.Text(prompt.Instruction),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", upstreamError("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(responseText.String())
	if text == "" {
		return "", upstreamError("empty text in gemini response")
	}
	return text, nil
}

// classifyGeminiError separates rejected credentials from other call failures
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: gemini: %w", ErrAuthConfiguration, err)
		}
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return fmt.Errorf("%w: gemini: %w", ErrAuthConfiguration, err)
		}
	}
	return fmt.Errorf("%w: generating content: %w", ErrUpstream, err)
}

// geminiOutputTokens is the output limit that leaves maxTokens for the reply itself
func geminiOutputTokens(maxTokens int) int32 {
	return int32(maxTokens + geminiThinkingAllowance)
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}
