package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devananda/smartbank/internal/service"
)

func TestWithRetrySucceedsAfterContention(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return ErrBusy
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return permanent
	}, service.RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls, "non-retryable failures are not retried")
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return ErrBusy
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond})
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 3, calls)
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return ErrBusy
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Minute})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrBusy))
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(ErrInsufficientFunds))
}

func TestUserError(t *testing.T) {
	wrapped := NewUserError("could not do the thing", ErrInvalidAmount)
	assert.ErrorIs(t, wrapped, ErrInvalidAmount)
	assert.Contains(t, wrapped.Error(), "could not do the thing")

	bare := NewUserError("just a message", nil)
	assert.Equal(t, "just a message", bare.Error())
}
