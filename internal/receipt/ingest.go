package receipt

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zombor/expense-tracker/internal/scanning"
)

const (
	// DefaultMaxUploadBytes is the default upload ceiling (5 MiB)
	DefaultMaxUploadBytes = 5 << 20

	// formField is the multipart field holding the receipt image
	formField = "receipt"

	// multipartOverhead allows for boundaries and part headers around the file
	multipartOverhead = 64 << 10
)

// DefaultAllowedTypes are the image types accepted when none are configured
var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// UploadLimits bounds what the ingestor accepts
type UploadLimits struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Ingestor validates receipt uploads before anything is sent to a model
type Ingestor struct {
	limits UploadLimits
}

// NewIngestor creates an Ingestor, filling in defaults for zero limits
func NewIngestor(limits UploadLimits) *Ingestor {
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultMaxUploadBytes
	}
	if len(limits.AllowedTypes) == 0 {
		limits.AllowedTypes = DefaultAllowedTypes
	}
	allowed := make([]string, 0, len(limits.AllowedTypes))
	for _, t := range limits.AllowedTypes {
		allowed = append(allowed, normalizeContentType(t))
	}
	limits.AllowedTypes = allowed
	return &Ingestor{limits: limits}
}

// Limits returns the effective limits
func (in *Ingestor) Limits() UploadLimits {
	return in.limits
}

// Ingest reads the receipt file from a multipart request.
// The request body is capped so an oversized upload is never fully buffered.
// Temporary multipart files are removed before Ingest returns.
func (in *Ingestor) Ingest(w http.ResponseWriter, r *http.Request) (*Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, in.limits.MaxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(in.limits.MaxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: request body exceeds %d bytes", ErrPayloadTooLarge, maxErr.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, fmt.Errorf("%w: request is not multipart", ErrMissingFile)
		}
		return nil, fmt.Errorf("%w: parsing multipart form: %v", ErrInvalidUpload, err)
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile(formField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, ErrMissingFile
		}
		return nil, fmt.Errorf("getting file from form: %w", err)
	}
	defer f.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = normalizeContentType(contentType)
	if !slices.Contains(in.limits.AllowedTypes, contentType) {
		return nil, fmt.Errorf("%w: %q is not one of %s", ErrInvalidUpload, contentType, strings.Join(in.limits.AllowedTypes, ", "))
	}

	if header.Size > in.limits.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, header.Size, in.limits.MaxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(f, in.limits.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading file data: %w", err)
	}
	if int64(len(data)) > in.limits.MaxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrPayloadTooLarge, in.limits.MaxBytes)
	}

	return &Upload{
		Filename: header.Filename,
		Image: scanning.Image{
			Data:        data,
			ContentType: contentType,
		},
	}, nil
}

// normalizeContentType lower-cases, drops parameters and folds image/jpg into image/jpeg
func normalizeContentType(contentType string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	if contentType == "image/jpg" || contentType == "image/pjpeg" {
		contentType = "image/jpeg"
	}
	return contentType
}

func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
