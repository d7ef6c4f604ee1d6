package ledger

import "time"

// Expense is an accepted extraction as kept in the local ledger
type Expense struct {
	ID        string    `json:"id"`
	Merchant  string    `json:"merchant"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Date      string    `json:"date"`                // YYYY-MM-DD
	ImageData string    `json:"imageData,omitempty"` // data URI of the receipt image
	Timestamp time.Time `json:"timestamp"`
}

// Stats describes how much the ledger holds
type Stats struct {
	SizeBytes    int `json:"size_bytes"`
	ExpenseCount int `json:"expense_count"`
}
