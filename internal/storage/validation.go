// Package storage provides the SQLite persistence layer for the ledger engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devananda/smartbank/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidEntry = errors.New("invalid ledger entry")
	ErrInvalidGoal  = errors.New("invalid goal")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateEntry validates a ledger entry before it is appended.
func validateEntry(entry *model.LedgerEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}
	if entry.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidEntry)
	}
	if entry.OwnerID == "" {
		return fmt.Errorf("%w: missing owner ID", ErrInvalidEntry)
	}
	if !entry.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, entry.Kind)
	}
	if !entry.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidEntry)
	}
	if entry.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEntry)
	}
	return nil
}

// validateGoal validates a goal before it is written.
func validateGoal(goal *model.FinancialGoal) error {
	if goal == nil {
		return fmt.Errorf("%w: goal", ErrNilParameter)
	}
	if goal.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidGoal)
	}
	if goal.OwnerID == "" {
		return fmt.Errorf("%w: missing owner ID", ErrInvalidGoal)
	}
	if !goal.SavingMode.Valid() {
		return fmt.Errorf("%w: unknown saving mode %q", ErrInvalidGoal, goal.SavingMode)
	}
	if goal.SmartSaverBalance.IsNegative() {
		return fmt.Errorf("%w: smart saver balance cannot be negative", ErrInvalidGoal)
	}
	return nil
}
