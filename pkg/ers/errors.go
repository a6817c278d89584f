package ers

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrEmptyBatch is returned when a bulk operation receives no items.
	ErrEmptyBatch = errors.New("empty batch: no items to process")

	// ErrPatchUnsupported is returned when a partial-field update is
	// requested for a category that only accepts full-replace updates.
	ErrPatchUnsupported = errors.New("category does not support patch")

	// ErrNamesUnsupported is returned when a name-addressed operation is
	// requested for a category addressable by id only.
	ErrNamesUnsupported = errors.New("category does not support name addressing")

	// ErrBulkUnsupported is returned when a bulk submit is requested for
	// a category without a bulk subtree.
	ErrBulkUnsupported = errors.New("category does not support bulk requests")

	// ErrFirstPageFailed is returned when a collection fetch fails on
	// page 1, before any follow-up pages could be planned.
	ErrFirstPageFailed = errors.New("collection fetch failed on first page")

	// ErrBulkIncomplete is returned when a bulk request finishes in a
	// terminal state other than COMPLETED, or when not every item of a
	// fan-out operation succeeded.
	ErrBulkIncomplete = errors.New("bulk operation did not complete fully")
)

// ErrorClass classifies API errors for logging and metrics.
type ErrorClass string

const (
	// ErrorClassValidation represents 4xx errors other than 404.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassNotFound represents 404 responses.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassTransport represents network/timeout/TLS errors.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassCategory represents caller errors caught before any
	// network call (unknown category, unsupported operation).
	ErrorClassCategory ErrorClass = "category"
)

// APIError represents an ERS-specific error with server context.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Operation  string
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ERS %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("ERS %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// maxErrBodySize caps how much of an unrecognized error body is carried
// into an APIError message.
const maxErrBodySize = 4 << 10

// ersEnvelope is the ERS error response shape.
//
// Example:
//
//	{"ERSResponse": {"operation": "PUT-update by name-networkdevice",
//	  "messages": [{"title": "...", "type": "ERROR", "code": "..."}]}}
type ersEnvelope struct {
	ERSResponse struct {
		Operation string `json:"operation"`
		Messages  []struct {
			Title string `json:"title"`
			Type  string `json:"type"`
			Code  string `json:"code"`
		} `json:"messages"`
	} `json:"ERSResponse"`
}

// errorDetail extracts human-readable detail from an ERS error body.
// Falls back to the raw body (capped) when the envelope is absent.
func errorDetail(body []byte) (operation, message string) {
	var envelope ersEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.ERSResponse.Messages) > 0 {
		parts := make([]string, 0, len(envelope.ERSResponse.Messages))
		for _, m := range envelope.ERSResponse.Messages {
			parts = append(parts, fmt.Sprintf("%s: %s (%s)", m.Type, strings.TrimSpace(m.Title), m.Code))
		}
		return envelope.ERSResponse.Operation, strings.Join(parts, "; ")
	}

	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return "", "N/A"
	}
	if len(raw) > maxErrBodySize {
		raw = raw[:maxErrBodySize]
	}
	return "", raw
}

// classify maps an HTTP status code to its error class. Only called for
// non-2xx statuses.
func classify(status int) ErrorClass {
	switch {
	case status == 404:
		return ErrorClassNotFound
	case status >= 400 && status < 500:
		return ErrorClassValidation
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassTransport
	}
}
