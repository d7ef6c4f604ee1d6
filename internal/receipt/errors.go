package receipt

import "errors"

// Pre-flight upload failures. None of these reach the model.
var (
	ErrMissingFile     = errors.New("no file uploaded")
	ErrInvalidUpload   = errors.New("invalid file type")
	ErrPayloadTooLarge = errors.New("file too large")
)
