package scanning

// Gate rejects a candidate whose reply had no merchant, amount or date.
// Anything else becomes an ExtractedExpense with defaults applied.
func Gate(c *Candidate) (*ExtractedExpense, error) {
	if c.Reply.Merchant == nil && c.Reply.Amount == nil && c.Reply.Date == nil {
		return nil, ErrNoExtractableData
	}

	return &ExtractedExpense{
		Merchant:    c.Merchant,
		Amount:      c.Amount,
		Currency:    c.Currency,
		Date:        c.Date,
		RawResponse: c.Response,
	}, nil
}
