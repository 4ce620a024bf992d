package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind identifies the balance-affecting event a ledger entry records.
type EntryKind string

const (
	// KindDeposit records money entering an account from outside.
	KindDeposit EntryKind = "DEPOSIT"
	// KindWithdraw records money leaving an account to the outside.
	KindWithdraw EntryKind = "WITHDRAW"
	// KindTransferSent records the debit half of a transfer.
	KindTransferSent EntryKind = "TRANSFER_SENT"
	// KindTransferReceived records the credit half of a transfer.
	KindTransferReceived EntryKind = "TRANSFER_RECEIVED"
	// KindGoalDeposit records funds ring-fenced into a goal's smart saver.
	KindGoalDeposit EntryKind = "GOAL_DEPOSIT"
	// KindGoalWithdraw records smart-saver funds released back to the account.
	KindGoalWithdraw EntryKind = "GOAL_WITHDRAW"
)

// Valid reports whether k is one of the defined entry kinds.
func (k EntryKind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdraw, KindTransferSent, KindTransferReceived,
		KindGoalDeposit, KindGoalWithdraw:
		return true
	}
	return false
}

// LedgerEntry is one immutable record of a balance-affecting event. Once
// written, only the IsFraud and Reported flags may change.
type LedgerEntry struct {
	Timestamp           time.Time
	ID                  string
	OwnerID             string
	CounterpartyAccount string
	GoalID              string
	Kind                EntryKind
	Amount              decimal.Decimal
	Seq                 int64
	IsFraud             bool
	Reported            bool
}
