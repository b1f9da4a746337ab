// Package respond provides shared JSON response utilities for API handlers.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/courtly/leaguecore/internal/storage"
)

// Envelope is the standard success shape for all API responses.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the standard error shape for all API errors.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	} `json:"error"`
}

// WriteData wraps v in the success envelope.
func WriteData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{
		Success:   true,
		Data:      v,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// WriteJSON writes raw JSON bytes with cache and ETag headers. Used on the
// cached read paths where the payload was serialized once at fill time.
func WriteJSON(w http.ResponseWriter, data []byte, etag string, ttl time.Duration, cacheHit bool) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	w.Header().Set("Vary", "Accept-Encoding")
	setCacheHeaders(w, ttl, cacheHit)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified sends a 304 with the matching ETag.
func WriteNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// WriteError sends a structured JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteErrorDetail sends a structured error with additional detail.
func WriteErrorDetail(w http.ResponseWriter, status int, code, message, detail string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Detail = detail
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// WriteStorageError maps the storage error taxonomy onto HTTP statuses.
func WriteStorageError(w http.ResponseWriter, err error) {
	switch storage.KindOf(err) {
	case storage.KindNotFound:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case storage.KindConflict:
		WriteErrorDetail(w, http.StatusConflict, "CONFLICT", "Resource conflict", err.Error())
	case storage.KindInvariant:
		WriteErrorDetail(w, http.StatusBadRequest, "INVALID", "Request violates a data constraint", err.Error())
	case storage.KindTransient:
		w.Header().Set("Retry-After", "5")
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Temporarily unavailable, retry shortly")
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
	}
}

// WriteValidationError sends a 400 for a domain validation failure.
func WriteValidationError(w http.ResponseWriter, err error) {
	WriteErrorDetail(w, http.StatusBadRequest, "VALIDATION", "Validation failed", err.Error())
}

func setCacheHeaders(w http.ResponseWriter, ttl time.Duration, cacheHit bool) {
	maxAge := int(ttl.Seconds())
	swr := maxAge / 2
	if cacheHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.Header().Set("Cache-Control",
		fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, swr))
}
