package scanning

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthConfiguration means the provider credentials are missing or were rejected
	ErrAuthConfiguration = errors.New("model provider credentials missing or rejected")

	// ErrUpstream covers every other failure of the model call
	ErrUpstream = errors.New("model provider request failed")

	// ErrParse means the model reply was not a JSON object
	ErrParse = errors.New("model reply was not valid JSON")

	// ErrNoExtractableData means the reply was valid but carried no merchant, amount or date
	ErrNoExtractableData = errors.New("no expense data found in image")
)

// ParseError carries the raw model reply that could not be parsed
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports ErrParse so callers can match with errors.Is
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func upstreamError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstream, fmt.Sprintf(format, args...))
}
