// internal/common/errors/errors_test.go
package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureLogger struct {
	warns  []string
	errors []string
}

func (c *captureLogger) Warn(msg string, _ map[string]interface{})  { c.warns = append(c.warns, msg) }
func (c *captureLogger) Error(msg string, _ map[string]interface{}) { c.errors = append(c.errors, msg) }

func TestSentinelMatching(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("list products: %w", NewNetworkError("list_products", cause))

	assert.True(t, errors.Is(err, ErrNetwork))
	assert.False(t, errors.Is(err, ErrServer))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, ErrCodeNetwork, CodeOf(err))
	assert.Equal(t, ErrorCode(""), CodeOf(cause))
}

func TestServerErrorCarriesStatus(t *testing.T) {
	err := NewServerError("search", 503, "unavailable")
	assert.Equal(t, 503, StatusOf(err))
	assert.True(t, err.Retryable)
	assert.Contains(t, err.Error(), "SERVER_ERROR 503")

	assert.False(t, NewServerError("search", 400, "").Retryable)
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
}

func TestCapacityMessage(t *testing.T) {
	err := NewCapacityExceededError(3)
	assert.Equal(t, "You can compare maximum 3 products at a time", err.Message)
	assert.Equal(t, 3, err.Metadata["capacity"])
}

func TestDispositionFor(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want Disposition
	}{
		{ErrCodeCapacityExceeded, DispositionNotice},
		{ErrCodeAlreadyPresent, DispositionNotice},
		{ErrCodeInvalidFilter, DispositionNotice},
		{ErrCodeInvalidQuery, DispositionNotice},
		{ErrCodeNotFound, DispositionNotice},
		{ErrCodeUnauthenticated, DispositionRedirectLogin},
		{ErrCodeNetwork, DispositionDegrade},
		{ErrCodeServer, DispositionDegrade},
		{ErrCodeDecodeFailed, DispositionDegrade},
		{ErrCodeStorageFailed, DispositionFail},
		{"INTERNAL_ERROR", DispositionFail},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, DispositionFor(tt.code))
		})
	}
}

func TestHandle_LogsByDisposition(t *testing.T) {
	log := &captureLogger{}
	h := NewErrorHandler(log)

	_, d := h.Handle("compare_add", NewAlreadyPresentError("1"))
	assert.Equal(t, DispositionNotice, d)

	_, d = h.Handle("search", NewServerError("search", 500, ""))
	assert.Equal(t, DispositionDegrade, d)

	stdErr, d := h.Handle("startup", errors.New("boom"))
	assert.Equal(t, DispositionFail, d)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), stdErr.Code)

	assert.Len(t, log.warns, 1)
	assert.Len(t, log.errors, 1)

	stdErr, d = h.Handle("noop", nil)
	assert.Nil(t, stdErr)
	assert.Empty(t, d)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeUnauthenticated))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeDecodeFailed))
	assert.Equal(t, "COMPARE", GetErrorCategory(ErrCodeCapacityExceeded))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidFilter))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStorageFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeNetwork))
	assert.False(t, IsRetryableErrorCode(ErrCodeServer))
}
