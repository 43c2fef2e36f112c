package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
	}{
		{"config", ErrCodeConfigInvalid, CategoryConfig},
		{"storage", ErrCodeStoreQuery, CategoryStorage},
		{"network", ErrCodeNetworkTimeout, CategoryNetwork},
		{"validation", ErrCodeInvalidLimit, CategoryValidation},
		{"retrieval", ErrCodeRetrievalUnavailable, CategoryRetrieval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
		})
	}
}

func TestNew_DerivesSeverityAndRetryable(t *testing.T) {
	unavailable := New(ErrCodeRetrievalUnavailable, "all paths down", nil)
	assert.Equal(t, SeverityFatal, unavailable.Severity)
	assert.False(t, unavailable.Retryable)

	degraded := New(ErrCodeDegradedRetrieval, "dense path down", nil)
	assert.Equal(t, SeverityWarning, degraded.Severity)

	network := New(ErrCodeNetworkTimeout, "timeout", nil)
	assert.True(t, network.Retryable)
	assert.True(t, IsRetryable(network))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeNetworkUnavailable, cause)

	require.NotNil(t, err)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), ErrCodeNetworkUnavailable)

	assert.Nil(t, Wrap(ErrCodeNetworkUnavailable, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeIndexNotReady, "no corpus", nil)
	b := IndexNotReady("also no corpus")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, New(ErrCodeInvalidInput, "x", nil)))
}

func TestWithDetail(t *testing.T) {
	err := ValidationError("bad limit", nil).WithDetail("limit", "500")
	assert.Equal(t, "500", err.Details["limit"])
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
	assert.Equal(t, CategoryValidation, GetCategory(err))
}

func TestRetryWithResult_SucceedsAfterFailures(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	result, err := RetryWithResult(context.Background(), cfg, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", fmt.Errorf("attempt %d failed", attempts)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return errors.New("always fails")
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial + 2 retries
	assert.Contains(t, err.Error(), "failed after 2 retries")
}

func TestRetry_NonRetryableCodedErrorFailsFast(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return New(ErrCodeInvalidInput, "bad input", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
}

func TestRetry_RetryableCodedErrorKeepsRetrying(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2.0}

	attempts := 0
	err := Retry(context.Background(), cfg, func() error {
		attempts++
		return New(ErrCodeNetworkTimeout, "timed out", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial + 2 retries
}

func TestRetry_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func() error {
		return errors.New("should not matter")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
