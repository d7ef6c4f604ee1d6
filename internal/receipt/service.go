package receipt

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/expense-tracker/internal/scanning"
)

// IDGenerator generates request IDs for log correlation
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.New().String()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the extraction pipeline: prompt, model call, normalization, gate.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	scanner     scanning.Scanner
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(scanner scanning.Scanner) *Service {
	return &Service{
		scanner:     scanner,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		scanner:     scanner,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Extract turns an uploaded receipt into an ExtractedExpense.
// Errors match scanning.ErrAuthConfiguration, scanning.ErrUpstream,
// scanning.ErrParse or scanning.ErrNoExtractableData.
func (s *Service) Extract(ctx context.Context, upload *Upload) (*scanning.ExtractedExpense, error) {
	requestID := s.idGenerator.Generate()
	log := slog.With("request_id", requestID, "filename", upload.Filename)

	log.Info("Processing receipt", "content_type", upload.ContentType, "size", len(upload.Data))

	prompt := scanning.BuildPrompt(upload.Image)

	start := s.timeSource.Now()
	text, err := s.scanner.Scan(ctx, prompt)
	if err != nil {
		log.Error("Failed to scan receipt", "error", err)
		return nil, err
	}
	log.Debug("Model response", "response", text, "elapsed", s.timeSource.Now().Sub(start))

	candidate, err := scanning.Normalize(text, s.timeSource.Now())
	if err != nil {
		log.Error("Failed to parse model response", "error", err, "response", text)
		return nil, err
	}

	expense, err := scanning.Gate(candidate)
	if err != nil {
		log.Warn("No expense data in model response", "response", text)
		return nil, err
	}

	log.Info("Extracted expense",
		"merchant", expense.Merchant,
		"amount", expense.Amount,
		"currency", expense.Currency,
		"date", expense.Date,
	)
	return expense, nil
}
