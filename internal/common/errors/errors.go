// Package errors provides the standardized error taxonomy for the discovery core.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Remote catalog errors
const (
	ErrCodeNetwork         ErrorCode = "NETWORK_ERROR"
	ErrCodeServer          ErrorCode = "SERVER_ERROR"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	ErrCodeInvalidQuery    ErrorCode = "INVALID_QUERY"
	ErrCodeDecodeFailed    ErrorCode = "DECODE_FAILED"
)

// Compare set and local state errors
const (
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"
	ErrCodeAlreadyPresent   ErrorCode = "ALREADY_PRESENT"
	ErrCodeInvalidFilter    ErrorCode = "INVALID_FILTER"
	ErrCodeStorageFailed    ErrorCode = "STORAGE_FAILED"
)

// Sentinels for errors.Is. A *StandardError matches the sentinel carrying the same code.
var (
	ErrNetwork          = &StandardError{Code: ErrCodeNetwork, Message: "network error"}
	ErrServer           = &StandardError{Code: ErrCodeServer, Message: "server error"}
	ErrNotFound         = &StandardError{Code: ErrCodeNotFound, Message: "not found"}
	ErrUnauthenticated  = &StandardError{Code: ErrCodeUnauthenticated, Message: "unauthenticated"}
	ErrInvalidQuery     = &StandardError{Code: ErrCodeInvalidQuery, Message: "invalid query"}
	ErrDecodeFailed     = &StandardError{Code: ErrCodeDecodeFailed, Message: "decode failed"}
	ErrCapacityExceeded = &StandardError{Code: ErrCodeCapacityExceeded, Message: "capacity exceeded"}
	ErrAlreadyPresent   = &StandardError{Code: ErrCodeAlreadyPresent, Message: "already present"}
	ErrInvalidFilter    = &StandardError{Code: ErrCodeInvalidFilter, Message: "invalid filter"}
	ErrStorageFailed    = &StandardError{Code: ErrCodeStorageFailed, Message: "storage failed"}
)

// StandardError represents a structured application error.
type StandardError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	StatusCode int                    `json:"statusCode,omitempty"`
	Retryable  bool                   `json:"retryable"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	cause      error
}

func (e *StandardError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("StandardError[%s %d]: %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is reports whether target is a StandardError with the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// CodeOf returns the code of the first StandardError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// StatusOf returns the HTTP status carried by a ServerError, or 0.
func StatusOf(err error) int {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.StatusCode
	}
	return 0
}

// ==========================
// 2. Error Constructors
// ==========================

// NewNetworkError creates a retryable transport failure.
func NewNetworkError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetwork,
		Message:   "Catalog service unreachable",
		Details:   fmt.Sprintf("op: %s, error: %v", op, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewServerError creates an error for a non-2xx response.
func NewServerError(op string, status int, body string) *StandardError {
	return &StandardError{
		Code:       ErrCodeServer,
		Message:    fmt.Sprintf("Catalog service returned %d", status),
		Details:    fmt.Sprintf("op: %s, body: %s", op, body),
		StatusCode: status,
		Retryable:  status >= 500,
		Timestamp:  time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable not-found error.
func NewNotFoundError(resource, id string) *StandardError {
	return &StandardError{
		Code:       ErrCodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    fmt.Sprintf("id: %s", id),
		StatusCode: 404,
		Retryable:  false,
		Timestamp:  time.Now().UTC(),
	}
}

// NewUnauthenticatedError is returned after the stored credential has been evicted.
func NewUnauthenticatedError(details string) *StandardError {
	return &StandardError{
		Code:       ErrCodeUnauthenticated,
		Message:    "Authentication required",
		Details:    details,
		StatusCode: 401,
		Retryable:  false,
		Timestamp:  time.Now().UTC(),
	}
}

func NewInvalidQueryError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQuery,
		Message:   "Search query is required",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDecodeFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecodeFailed,
		Message:   "Malformed response from catalog service",
		Details:   fmt.Sprintf("op: %s, error: %v", op, err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewCapacityExceededError is surfaced to users as a notice, not logged as a bug.
func NewCapacityExceededError(capacity int) *StandardError {
	return &StandardError{
		Code:      ErrCodeCapacityExceeded,
		Message:   fmt.Sprintf("You can compare maximum %d products at a time", capacity),
		Retryable: false,
		Metadata:  map[string]interface{}{"capacity": capacity},
		Timestamp: time.Now().UTC(),
	}
}

func NewAlreadyPresentError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadyPresent,
		Message:   "Product already in compare list",
		Details:   fmt.Sprintf("productId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidFilterError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilter,
		Message:   "Invalid filter criteria",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStorageFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailed,
		Message:   "Local storage operation failed",
		Details:   fmt.Sprintf("key: %s, error: %v", key, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}
