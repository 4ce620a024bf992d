// Package model defines the core domain entities for the ledger engine.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a single owner's funds. Exactly one account exists per
// owner; it is created lazily on first use.
type Account struct {
	CreatedAt     time.Time
	OwnerID       string
	AccountNumber string
	Balance       decimal.Decimal
	Reserved      decimal.Decimal
	ID            int64
}

// Usable returns the portion of the balance not ring-fenced by smart-saver
// reservations. Reserved is populated on reads from the owner's goals.
func (a *Account) Usable() decimal.Decimal {
	return a.Balance.Sub(a.Reserved)
}
