package receipt

import "github.com/zombor/expense-tracker/internal/scanning"

// Upload is a validated receipt image owned by a single request
type Upload struct {
	Filename string
	scanning.Image
}

// Response is the envelope returned by POST /api/extract
type Response struct {
	Success bool                       `json:"success"`
	Data    *scanning.ExtractedExpense `json:"data,omitempty"`
	Error   string                     `json:"error,omitempty"`
	Details string                     `json:"details,omitempty"`
}

// Health is the body returned by GET /api/health
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
