package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/expense-tracker/internal/scanning"
)

// isoMillis matches JavaScript's Date.toISOString
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleIndex serves the single page app
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{
		Status:    "ok",
		Timestamp: s.now().UTC().Format(isoMillis),
	})
}

// handleExtract validates the upload and runs the extraction pipeline
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	upload, err := s.ingestor.Ingest(w, r)
	if err != nil {
		slog.Warn("Rejected upload", "error", err)
		s.writeFailure(w, err)
		return
	}

	expense, err := s.service.Extract(r.Context(), upload)
	if err != nil {
		s.writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    expense,
	})
}

// writeFailure converts a pipeline error into the failure envelope
func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status, message, details := s.describe(err)
	writeJSON(w, status, Response{
		Success: false,
		Error:   message,
		Details: details,
	})
}

// describe maps an error to its status code and user-facing message pair
func (s *Server) describe(err error) (int, string, string) {
	limits := s.ingestor.Limits()

	switch {
	case errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest, "No file uploaded", "Please upload a receipt image"
	case errors.Is(err, ErrInvalidUpload):
		return http.StatusBadRequest, "Invalid file type",
			fmt.Sprintf("Only %s images are allowed.", typeNames(limits.AllowedTypes))
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large",
			fmt.Sprintf("Receipt image must be smaller than %s", byteSize(limits.MaxBytes))
	case errors.Is(err, scanning.ErrNoExtractableData):
		return http.StatusBadRequest, "Could not extract expense data from the image",
			"The image may not be a valid receipt or the text is not clear enough. Please try a clearer image."
	case errors.Is(err, scanning.ErrParse):
		return http.StatusBadRequest, "Failed to parse extracted data",
			"The model response was not valid JSON. Please try again."
	case errors.Is(err, scanning.ErrAuthConfiguration):
		return http.StatusInternalServerError, "Model provider configuration error",
			"Please check your API key configuration"
	default:
		return http.StatusInternalServerError, "Failed to extract data from receipt", err.Error()
	}
}

func typeNames(types []string) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, strings.ToUpper(strings.TrimPrefix(t, "image/")))
	}
	return strings.Join(names, ", ")
}

func byteSize(n int64) string {
	const mib = 1 << 20
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}
