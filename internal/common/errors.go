// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Engine error taxonomy. Every failure is returned to the caller typed and
// side-effect-free; the presentation layer owns user-facing wording.
var (
	// Validation errors.
	ErrInvalidAmount = errors.New("invalid amount")
	ErrSelfTransfer  = errors.New("cannot transfer to own account")

	// Funds errors.
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrGoalViolation     = errors.New("withdrawal would breach savings goal")
	ErrNothingToWithdraw = errors.New("smart saver balance is empty")

	// Lookup errors.
	ErrAccountNotFound     = errors.New("account not found")
	ErrRecipientNotFound   = errors.New("recipient account not found")
	ErrGoalNotFound        = errors.New("goal not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrReportNotFound      = errors.New("report not found")

	// Authorization and state errors.
	ErrUnauthorized   = errors.New("caller does not own this resource")
	ErrReportResolved = errors.New("report already resolved")

	// Operational errors.
	ErrAccountNumberExhausted = errors.New("account number generation exhausted")
	ErrBusy                   = errors.New("account busy, try again")

	// Database errors.
	ErrDuplicateEntry = errors.New("duplicate entry")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrBusy) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
