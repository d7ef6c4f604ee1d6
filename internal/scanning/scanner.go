package scanning

import (
	"context"
	"time"
)

// Image is an uploaded receipt image held in memory for one request
type Image struct {
	Data        []byte
	ContentType string
}

// ExtractedExpense is the finalized result of a successful extraction.
// All four primary fields are always populated.
type ExtractedExpense struct {
	Merchant    string  `json:"merchant"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Date        string  `json:"date"` // YYYY-MM-DD
	RawResponse string  `json:"raw_response"`
}

// Scanner sends an extraction prompt to a vision-capable model
type Scanner interface {
	// Scan issues a single request and returns the model's reply text
	Scan(ctx context.Context, prompt Prompt) (string, error)
	// Close closes the scanner and releases resources
	Close() error
}

// ModelConfig holds the settings shared by every model provider
type ModelConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

const (
	defaultMaxTokens = 300
	defaultTimeout   = 60 * time.Second
)

func (c ModelConfig) withDefaults() ModelConfig {
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}
