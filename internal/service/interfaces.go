// Package service defines the contracts between the ledger engine, its
// persistence layer, and its external collaborators.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devananda/smartbank/internal/model"
)

// EntryFilter defines filtering options for ledger queries. All fields are
// optional; filtering is advisory and never mutates entries.
type EntryFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	Counterparty string
	Kinds        []model.EntryKind
	Limit        int
	Offset       int
}

// ReportFilter defines filtering options for spam-report queries.
type ReportFilter struct {
	Status    *model.ReportStatus
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
}

// Store is the data-access method set shared by Storage and Tx. Inside an
// engine operation every call goes through a Tx so the balance change and
// its ledger entry commit as one unit.
type Store interface {
	// Account operations
	GetAccountByOwner(ctx context.Context, ownerID string) (*model.Account, error)
	GetAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error)
	CreateAccount(ctx context.Context, ownerID, accountNumber string) (*model.Account, error)
	AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (decimal.Decimal, error)
	DeleteAccount(ctx context.Context, accountID int64) error

	// Ledger operations
	AppendEntry(ctx context.Context, entry *model.LedgerEntry) error
	GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error)
	ForEachEntry(ctx context.Context, ownerID string, filter EntryFilter, fn func(model.LedgerEntry) bool) error
	QueryEntries(ctx context.Context, ownerID string, filter EntryFilter) ([]model.LedgerEntry, error)
	SetEntryFraud(ctx context.Context, id string, isFraud bool) error
	SetEntryReported(ctx context.Context, id string, reported bool) error
	DeleteEntriesByOwner(ctx context.Context, ownerID string) error

	// Goal operations
	CreateGoal(ctx context.Context, goal *model.FinancialGoal) error
	GetGoal(ctx context.Context, id string) (*model.FinancialGoal, error)
	ListGoals(ctx context.Context, ownerID string) ([]model.FinancialGoal, error)
	LatestActiveGoal(ctx context.Context, ownerID string) (*model.FinancialGoal, error)
	UpdateGoal(ctx context.Context, goal *model.FinancialGoal) error
	AdjustSmartSaver(ctx context.Context, goalID string, delta decimal.Decimal) (decimal.Decimal, error)
	SumSmartSaver(ctx context.Context, ownerID string) (decimal.Decimal, error)
	DeleteGoal(ctx context.Context, id string) error
	DeleteGoalsByOwner(ctx context.Context, ownerID string) error

	// Report operations
	CreateReport(ctx context.Context, report *model.SpamReport) error
	GetReport(ctx context.Context, id string) (*model.SpamReport, error)
	FindOpenReport(ctx context.Context, reporterID, transactionID string) (*model.SpamReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.SpamReport, error)
	SetReportStatus(ctx context.Context, id string, status model.ReportStatus) error
	DeleteReport(ctx context.Context, id string) error
	DeleteReportsByOwner(ctx context.Context, ownerID string) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	Store

	// Database management
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Tx, error)
	Close() error
}

// Tx represents a database transaction. Every mutation inside an engine
// operation runs through one Tx; Commit is the single atomic boundary.
type Tx interface {
	Store

	Commit() error
	Rollback() error
}

// Clock supplies the current time. Injectable so expected-savings math and
// entry timestamps are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// IdentityProvider authenticates a request and yields a stable owner ID.
// The engine trusts this value completely and performs no credential
// checks itself; biometric matching lives behind this boundary.
type IdentityProvider interface {
	Authenticate(ctx context.Context) (string, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
