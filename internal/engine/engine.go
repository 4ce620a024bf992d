// Package engine implements the ledger's transactional core: atomic balance
// movement, goal-constrained withdrawals, and fraud-report state. Every
// operation runs under per-account locks inside a single database
// transaction, so a failure at any point leaves no partial state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/model"
	"github.com/devananda/smartbank/internal/service"
)

// GoalPolicy selects which of several simultaneously active goals binds a
// withdrawal. The source behavior was ambiguous here, so the policy is
// configuration rather than hard-wired.
type GoalPolicy string

// GoalPolicyLatestCreated binds the most recently created active goal.
const GoalPolicyLatestCreated GoalPolicy = "latest-created"

// Config holds the engine's tunable settings, passed at construction time.
type Config struct {
	AccountNumberPrefix   string
	GoalPolicy            GoalPolicy
	LockWait              time.Duration
	AccountNumberAttempts int
}

// DefaultConfig returns the settings used when none are supplied.
func DefaultConfig() Config {
	return Config{
		LockWait:              3 * time.Second,
		AccountNumberAttempts: 10,
		AccountNumberPrefix:   "SB",
		GoalPolicy:            GoalPolicyLatestCreated,
	}
}

// Engine coordinates the account store, ledger, goals, and reports.
type Engine struct {
	store    service.Storage
	clock    service.Clock
	numberFn func() string
	locks    *lockTable
	cfg      Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the system clock, for deterministic tests.
func WithClock(clock service.Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// WithAccountNumberFn replaces the account-number generator, for tests
// that need to force collisions.
func WithAccountNumberFn(fn func() string) Option {
	return func(e *Engine) { e.numberFn = fn }
}

// New creates an Engine on top of the given storage.
func New(store service.Storage, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		clock: service.SystemClock{},
		locks: newLockTable(),
		cfg:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.numberFn == nil {
		e.numberFn = func() string {
			return fmt.Sprintf("%s%08d", e.cfg.AccountNumberPrefix, rand.IntN(100000000))
		}
	}
	return e
}

// GetOrCreateAccount returns the owner's account, creating it on first
// access. Account-number collisions are retried up to the configured
// attempt count.
func (e *Engine) GetOrCreateAccount(ctx context.Context, ownerID string) (*model.Account, error) {
	acct, err := e.store.GetAccountByOwner(ctx, ownerID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, common.ErrAccountNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < e.cfg.AccountNumberAttempts; attempt++ {
		number := e.numberFn()
		acct, err := e.store.CreateAccount(ctx, ownerID, number)
		if err == nil {
			slog.Info("Created account",
				"owner_id", ownerID,
				"account_number", number)
			return acct, nil
		}
		if errors.Is(err, common.ErrDuplicateEntry) {
			// Either the number collided or a concurrent call created the
			// owner's account first; re-check before retrying.
			if existing, getErr := e.store.GetAccountByOwner(ctx, ownerID); getErr == nil {
				return existing, nil
			}
			continue
		}
		return nil, err
	}
	return nil, common.ErrAccountNumberExhausted
}

// Balance returns a consistent snapshot of the owner's account, including
// the derived smart-saver reservation.
func (e *Engine) Balance(ctx context.Context, ownerID string) (*model.Account, error) {
	return e.GetOrCreateAccount(ctx, ownerID)
}

// Deposit credits the owner's account and appends one Deposit entry.
func (e *Engine) Deposit(ctx context.Context, ownerID string, amount decimal.Decimal) (*model.Account, *model.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, nil, common.ErrInvalidAmount
	}

	acct, err := e.GetOrCreateAccount(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	release, err := e.locks.acquire(ctx, acct.ID, e.cfg.LockWait)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	newBalance, err := tx.AdjustBalance(ctx, acct.ID, amount)
	if err != nil {
		return nil, nil, err
	}

	entry := e.newEntry(ownerID, model.KindDeposit, amount)
	if err := tx.AppendEntry(ctx, entry); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit deposit: %w", err)
	}

	acct.Balance = newBalance
	return acct, entry, nil
}

// Withdraw debits the owner's account and appends one Withdraw entry. When
// the owner has an active goal, the withdrawal must leave the usable
// balance at or above the goal's expected cumulative savings; any debit
// that would dip into smart-saver reservations is likewise refused.
func (e *Engine) Withdraw(ctx context.Context, ownerID string, amount decimal.Decimal) (*model.Account, *model.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, nil, common.ErrInvalidAmount
	}

	acct, err := e.GetOrCreateAccount(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	release, err := e.locks.acquire(ctx, acct.ID, e.cfg.LockWait)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	fresh, err := tx.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if amount.GreaterThan(fresh.Balance) {
		return nil, nil, common.ErrInsufficientFunds
	}

	floor := decimal.Zero
	goal, err := e.bindingGoal(ctx, tx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if goal != nil {
		floor = goal.ExpectedSavings(e.clock.Now())
	}
	if fresh.Usable().Sub(amount).LessThan(floor) {
		return nil, nil, common.ErrGoalViolation
	}

	newBalance, err := tx.AdjustBalance(ctx, acct.ID, amount.Neg())
	if err != nil {
		return nil, nil, err
	}

	entry := e.newEntry(ownerID, model.KindWithdraw, amount)
	if err := tx.AppendEntry(ctx, entry); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit withdrawal: %w", err)
	}

	fresh.Balance = newBalance
	return fresh, entry, nil
}

// Transfer moves amount from the owner's account to the account with the
// given number, appending exactly two entries (one per party). Both
// balance changes and both entries commit atomically; both accounts' locks
// are taken in ascending ID order.
func (e *Engine) Transfer(ctx context.Context, ownerID, recipientAccountNumber string, amount decimal.Decimal) (*model.LedgerEntry, *model.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, nil, common.ErrInvalidAmount
	}

	sender, err := e.GetOrCreateAccount(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	recipient, err := e.store.GetAccountByNumber(ctx, recipientAccountNumber)
	if errors.Is(err, common.ErrAccountNotFound) {
		return nil, nil, common.ErrRecipientNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if recipient.ID == sender.ID {
		return nil, nil, common.ErrSelfTransfer
	}

	release, err := e.locks.acquireTwo(ctx, sender.ID, recipient.ID, e.cfg.LockWait)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	freshSender, err := tx.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if amount.GreaterThan(freshSender.Balance) {
		return nil, nil, common.ErrInsufficientFunds
	}
	// Transfers skip the expected-savings floor but may not invade
	// smart-saver reservations.
	if amount.GreaterThan(freshSender.Usable()) {
		return nil, nil, common.ErrGoalViolation
	}

	if _, err := tx.AdjustBalance(ctx, sender.ID, amount.Neg()); err != nil {
		return nil, nil, err
	}
	if _, err := tx.AdjustBalance(ctx, recipient.ID, amount); err != nil {
		return nil, nil, err
	}

	sent := e.newEntry(ownerID, model.KindTransferSent, amount)
	sent.CounterpartyAccount = recipient.AccountNumber
	if err := tx.AppendEntry(ctx, sent); err != nil {
		return nil, nil, err
	}

	received := e.newEntry(recipient.OwnerID, model.KindTransferReceived, amount)
	received.CounterpartyAccount = sender.AccountNumber
	if err := tx.AppendEntry(ctx, received); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	slog.Info("Transfer completed",
		"from", sender.AccountNumber,
		"to", recipient.AccountNumber,
		"amount", amount.String())
	return sent, received, nil
}

// QueryTransactions returns a lazy, restartable sequence of the owner's
// ledger entries, newest first. Each range over the sequence re-runs the
// query; iteration may stop early without cost.
func (e *Engine) QueryTransactions(ctx context.Context, ownerID string, filter service.EntryFilter) iter.Seq2[model.LedgerEntry, error] {
	return func(yield func(model.LedgerEntry, error) bool) {
		err := e.store.ForEachEntry(ctx, ownerID, filter, func(entry model.LedgerEntry) bool {
			return yield(entry, nil)
		})
		if err != nil {
			yield(model.LedgerEntry{}, err)
		}
	}
}

// ListTransactions materializes QueryTransactions into a slice.
func (e *Engine) ListTransactions(ctx context.Context, ownerID string, filter service.EntryFilter) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for entry, err := range e.QueryTransactions(ctx, ownerID, filter) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EraseOwner removes the owner's goals, reports, ledger history, and
// account in one transaction. This administrative path is the only one
// that ever deletes ledger rows.
func (e *Engine) EraseOwner(ctx context.Context, ownerID string) error {
	acct, err := e.store.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	release, err := e.locks.acquire(ctx, acct.ID, e.cfg.LockWait)
	if err != nil {
		return err
	}
	defer release()

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.DeleteReportsByOwner(ctx, ownerID); err != nil {
		return err
	}
	if err := tx.DeleteEntriesByOwner(ctx, ownerID); err != nil {
		return err
	}
	if err := tx.DeleteGoalsByOwner(ctx, ownerID); err != nil {
		return err
	}
	if err := tx.DeleteAccount(ctx, acct.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit erasure: %w", err)
	}

	slog.Info("Erased owner", "owner_id", ownerID)
	return nil
}

// bindingGoal returns the goal constraining the owner's withdrawals under
// the configured policy, or nil when no active goal exists.
func (e *Engine) bindingGoal(ctx context.Context, tx service.Tx, ownerID string) (*model.FinancialGoal, error) {
	switch e.cfg.GoalPolicy {
	case GoalPolicyLatestCreated, "":
		return tx.LatestActiveGoal(ctx, ownerID)
	default:
		return nil, fmt.Errorf("unknown goal policy %q", e.cfg.GoalPolicy)
	}
}

func (e *Engine) newEntry(ownerID string, kind model.EntryKind, amount decimal.Decimal) *model.LedgerEntry {
	return &model.LedgerEntry{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Kind:      kind,
		Amount:    amount,
		Timestamp: e.clock.Now().UTC(),
	}
}
