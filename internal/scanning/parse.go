package scanning

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

const (
	// UnknownMerchant replaces a missing merchant name
	UnknownMerchant = "Unknown Merchant"
	// DefaultCurrency replaces a missing or malformed currency code
	DefaultCurrency = "USD"

	dateLayout = "2006-01-02"
)

// replySchema describes the reply the prompt asks for. Slots that break it are treated as absent.
const replySchema = `{
  "type": "object",
  "properties": {
    "merchant": {"type": ["string", "null"]},
    "amount":   {"type": ["number", "string", "null"]},
    "currency": {"type": ["string", "null"]},
    "date":     {"type": ["string", "null"]}
  }
}`

var (
	compiledReplySchema = jsonschema.MustCompileString("reply.json", replySchema)

	fenceTag     = regexp.MustCompile(`^[A-Za-z0-9_+-]*[ \t]*(\r?\n)?`)
	currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

	// dateLayouts are tried in order when the model ignores the requested format
	dateLayouts = []string{
		dateLayout,
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
	}

	amountNoise = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", "₹", "", ",", "", " ", "")
)

// RawFields holds the reply's slots before defaults. Nil means absent, null, blank or of the wrong type.
type RawFields struct {
	Merchant *string
	Amount   *string // literal text of the number or string the model sent
	Currency *string
	Date     *string
}

// Candidate is a normalized reply: the raw slots plus defaulted values
type Candidate struct {
	Reply    RawFields
	Merchant string
	Amount   float64
	Currency string
	Date     string
	Response string
}

// Normalize turns a model reply into a Candidate. today supplies the default date.
func Normalize(response string, today time.Time) (*Candidate, error) {
	text := stripFences(strings.TrimSpace(response))

	obj, err := decodeObject(text)
	if err != nil {
		return nil, &ParseError{Raw: response, Err: err}
	}

	invalid := shapeViolations(obj)
	if len(invalid) > 0 {
		slog.Warn("Model reply has fields of unexpected type", "fields", strings.Join(sortedKeys(invalid), ","))
	}

	reply := RawFields{
		Merchant: stringSlot(obj, "merchant", invalid),
		Amount:   amountSlot(obj, invalid),
		Currency: stringSlot(obj, "currency", invalid),
		Date:     stringSlot(obj, "date", invalid),
	}

	c := &Candidate{
		Reply:    reply,
		Merchant: UnknownMerchant,
		Amount:   parseAmount(reply.Amount),
		Currency: DefaultCurrency,
		Date:     today.Format(dateLayout),
		Response: response,
	}
	if reply.Merchant != nil {
		c.Merchant = *reply.Merchant
	}
	if reply.Currency != nil {
		if code := strings.ToUpper(*reply.Currency); currencyCode.MatchString(code) {
			c.Currency = code
		}
	}
	if reply.Date != nil {
		if d, ok := parseDate(*reply.Date); ok {
			c.Date = d
		}
	}
	return c, nil
}

// stripFences removes a ``` or ```json wrapper when both the opening and closing fence are present
func stripFences(text string) string {
	if len(text) < 6 || !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") {
		return text
	}
	inner := text[3 : len(text)-3]
	if loc := fenceTag.FindStringIndex(inner); loc != nil {
		inner = inner[loc[1]:]
	}
	return strings.TrimSpace(inner)
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected content after JSON value")
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("reply is not a JSON object")
	}
	return obj, nil
}

// shapeViolations returns the top-level keys whose values break replySchema
func shapeViolations(obj map[string]any) map[string]bool {
	err := compiledReplySchema.Validate(obj)
	if err == nil {
		return nil
	}

	invalid := make(map[string]bool)
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return invalid
	}

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if key, _, _ := strings.Cut(strings.TrimPrefix(e.InstanceLocation, "/"), "/"); key != "" {
			invalid[key] = true
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return invalid
}

func stringSlot(obj map[string]any, key string, invalid map[string]bool) *string {
	if invalid[key] {
		return nil
	}
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func amountSlot(obj map[string]any, invalid map[string]bool) *string {
	if invalid["amount"] {
		return nil
	}
	switch v := obj["amount"].(type) {
	case json.Number:
		s := v.String()
		return &s
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return &s
	}
	return nil
}

// parseAmount returns the amount in major units, or 0 when it is missing, unparsable or negative
func parseAmount(raw *string) float64 {
	if raw == nil {
		return 0
	}
	d, err := decimal.NewFromString(amountNoise.Replace(*raw))
	if err != nil || d.IsNegative() {
		return 0
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseDate(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format(dateLayout), true
		}
	}
	return "", false
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
