package errors

import (
	"errors"
	"strings"
	"time"
)

// Disposition tells a caller how an error should reach the user.
type Disposition string

const (
	// DispositionNotice is an expected condition shown as a user notice.
	DispositionNotice Disposition = "notice"
	// DispositionRedirectLogin sends the user to the login entry point.
	DispositionRedirectLogin Disposition = "redirect_login"
	// DispositionDegrade replaces the result with an empty state.
	DispositionDegrade Disposition = "degrade"
	// DispositionFail is an unexpected failure worth logging as a bug.
	DispositionFail Disposition = "fail"
)

type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it at the level its disposition calls for and
// returns the disposition. Notices are not logged.
func (h *ErrorHandler) Handle(op string, err error) (*StandardError, Disposition) {
	if err == nil {
		return nil, ""
	}
	stdErr := h.normalizeError(err)
	disposition := DispositionFor(stdErr.Code)

	fields := map[string]interface{}{
		"op":            op,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if stdErr.StatusCode != 0 {
		fields["status"] = stdErr.StatusCode
	}

	switch disposition {
	case DispositionFail:
		h.logger.Error("operation failed", fields)
	case DispositionDegrade, DispositionRedirectLogin:
		h.logger.Warn("operation degraded", fields)
	}

	return stdErr, disposition
}

func (h *ErrorHandler) normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// DispositionFor maps an error code onto the user-visible policy.
func DispositionFor(code ErrorCode) Disposition {
	switch code {
	case ErrCodeCapacityExceeded, ErrCodeAlreadyPresent, ErrCodeInvalidQuery, ErrCodeInvalidFilter, ErrCodeNotFound:
		return DispositionNotice
	case ErrCodeUnauthenticated:
		return DispositionRedirectLogin
	case ErrCodeNetwork, ErrCodeServer, ErrCodeDecodeFailed:
		return DispositionDegrade
	default:
		return DispositionFail
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeNetwork, ErrCodeStorageFailed:
		return true
	default:
		return false
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeUnauthenticated:
		return "AUTH"
	case code == ErrCodeNetwork || code == ErrCodeServer || code == ErrCodeDecodeFailed:
		return "TRANSPORT"
	case code == ErrCodeCapacityExceeded || code == ErrCodeAlreadyPresent:
		return "COMPARE"
	case code == ErrCodeStorageFailed:
		return "STORAGE"
	case strings.HasPrefix(codeStr, "INVALID"):
		return "VALIDATION"
	case code == ErrCodeNotFound:
		return "CATALOG"
	default:
		return "OTHER"
	}
}
