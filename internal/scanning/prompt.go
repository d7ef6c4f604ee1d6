package scanning

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// receiptScanPrompt is the shared instruction sent to every provider along with the image
const receiptScanPrompt = `Analyze this receipt image and extract the following information. Return ONLY valid JSON with no additional text or markdown formatting:

{
  "merchant": "store or vendor name",
  "amount": 0.00,
  "currency": "USD",
  "date": "YYYY-MM-DD"
}

Instructions:
- merchant: Extract the business/store name (e.g., "Starbucks", "Target", "Shell")
- amount: Extract the TOTAL amount due as a number (e.g., 15.50). Do not use the subtotal or a tax line
- currency: Identify the 3-letter currency code (USD, EUR, GBP, etc.) - default to USD if unclear
- date: Extract the transaction date in YYYY-MM-DD format
- If any field is completely unclear or not visible, use null
- Be precise with the total amount - look for "Total", "Amount Due", or final sum
- Return ONLY the JSON object with exactly these four fields, no explanations, no prose and no markdown code blocks`

// Prompt is an extraction request ready to send to a model
type Prompt struct {
	Instruction string
	// ImageURL is the image encoded as a data URI
	ImageURL string
	Image    Image
}

// BuildPrompt embeds the image as a base64 data URI next to the fixed instruction
func BuildPrompt(img Image) Prompt {
	return Prompt{
		Instruction: receiptScanPrompt,
		ImageURL:    EncodeDataURI(img.Data, img.ContentType),
		Image:       img,
	}
}

// EncodeDataURI returns data:<mimeType>;base64,<data>
func EncodeDataURI(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI reverses EncodeDataURI and returns the bytes and MIME type
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("data URI has no payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, "", fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding base64 payload: %w", err)
	}
	return data, mimeType, nil
}
