package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/model"
)

// GoalParams carries the caller-supplied fields for creating or editing a
// goal. Amounts for cadences other than the chosen saving mode may be zero.
type GoalParams struct {
	Deadline      time.Time
	Name          string
	SavingMode    model.SavingMode
	TargetAmount  decimal.Decimal
	DailyAmount   decimal.Decimal
	WeeklyAmount  decimal.Decimal
	MonthlyAmount decimal.Decimal
	YearlyAmount  decimal.Decimal
	InitialSeed   decimal.Decimal
}

func (p *GoalParams) validate() error {
	if !p.SavingMode.Valid() {
		return fmt.Errorf("%w: unknown saving mode %q", common.ErrInvalidAmount, p.SavingMode)
	}
	for _, amount := range []decimal.Decimal{
		p.TargetAmount, p.DailyAmount, p.WeeklyAmount, p.MonthlyAmount, p.YearlyAmount, p.InitialSeed,
	} {
		if amount.IsNegative() {
			return common.ErrInvalidAmount
		}
	}
	return nil
}

// GoalStatus pairs a goal with its schedule-derived progress figures.
type GoalStatus struct {
	Goal            model.FinancialGoal
	ExpectedSavings decimal.Decimal
}

// SetGoal creates a goal for the owner, optionally seeding its smart-saver
// balance from the account's usable funds in the same transaction.
func (e *Engine) SetGoal(ctx context.Context, ownerID string, params GoalParams) (*model.FinancialGoal, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	acct, err := e.GetOrCreateAccount(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	release, err := e.locks.acquire(ctx, acct.ID, e.cfg.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	goal := &model.FinancialGoal{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		Name:              params.Name,
		TargetAmount:      params.TargetAmount,
		Deadline:          params.Deadline,
		SavingMode:        params.SavingMode,
		DailyAmount:       params.DailyAmount,
		WeeklyAmount:      params.WeeklyAmount,
		MonthlyAmount:     params.MonthlyAmount,
		YearlyAmount:      params.YearlyAmount,
		SmartSaverBalance: decimal.Zero,
		CreatedAt:         e.clock.Now().UTC(),
	}
	if err := tx.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}

	if params.InitialSeed.IsPositive() {
		fresh, err := tx.GetAccountByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if params.InitialSeed.GreaterThan(fresh.Usable()) {
			return nil, common.ErrInsufficientFunds
		}
		if _, err := tx.AdjustSmartSaver(ctx, goal.ID, params.InitialSeed); err != nil {
			return nil, err
		}

		entry := e.newEntry(ownerID, model.KindGoalDeposit, params.InitialSeed)
		entry.GoalID = goal.ID
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return nil, err
		}
		goal.SmartSaverBalance = params.InitialSeed
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit goal creation: %w", err)
	}
	return goal, nil
}

// UpdateGoal edits a goal's name, target, deadline, and schedule. Only the
// owner may edit; the smart-saver balance is not editable here.
func (e *Engine) UpdateGoal(ctx context.Context, ownerID, goalID string, params GoalParams) (*model.FinancialGoal, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	goal, err := e.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.OwnerID != ownerID {
		return nil, common.ErrUnauthorized
	}

	goal.Name = params.Name
	goal.TargetAmount = params.TargetAmount
	goal.Deadline = params.Deadline
	goal.SavingMode = params.SavingMode
	goal.DailyAmount = params.DailyAmount
	goal.WeeklyAmount = params.WeeklyAmount
	goal.MonthlyAmount = params.MonthlyAmount
	goal.YearlyAmount = params.YearlyAmount

	if err := e.store.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// DeleteGoal removes the owner's goal. A non-zero smart-saver balance is
// released back to the usable balance, with a GoalWithdraw entry, in the
// same transaction as the deletion so no funds are ever forfeited.
func (e *Engine) DeleteGoal(ctx context.Context, ownerID, goalID string) error {
	goal, err := e.store.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if goal.OwnerID != ownerID {
		return common.ErrUnauthorized
	}

	acct, err := e.GetOrCreateAccount(ctx, ownerID)
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

	fresh, err := tx.GetGoal(ctx, goalID)
	if err != nil {
		return err
	}
	if fresh.SmartSaverBalance.IsPositive() {
		if _, err := tx.AdjustSmartSaver(ctx, goalID, fresh.SmartSaverBalance.Neg()); err != nil {
			return err
		}
		entry := e.newEntry(ownerID, model.KindGoalWithdraw, fresh.SmartSaverBalance)
		entry.GoalID = goalID
		if err := tx.AppendEntry(ctx, entry); err != nil {
			return err
		}
	}

	if err := tx.DeleteGoal(ctx, goalID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit goal deletion: %w", err)
	}
	return nil
}

// ListGoals returns the owner's goals with expected savings as of now.
func (e *Engine) ListGoals(ctx context.Context, ownerID string) ([]GoalStatus, error) {
	goals, err := e.store.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	statuses := make([]GoalStatus, 0, len(goals))
	for _, goal := range goals {
		statuses = append(statuses, GoalStatus{
			Goal:            goal,
			ExpectedSavings: goal.ExpectedSavings(now),
		})
	}
	return statuses, nil
}

// DepositToGoal ring-fences amount from the owner's usable balance into
// the goal's smart saver and appends a GoalDeposit entry. The account
// balance itself is unchanged; the funds are reserved, not moved.
func (e *Engine) DepositToGoal(ctx context.Context, ownerID, goalID string, amount decimal.Decimal) (*model.FinancialGoal, *model.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, nil, common.ErrInvalidAmount
	}

	goal, err := e.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, nil, err
	}
	if goal.OwnerID != ownerID {
		return nil, nil, common.ErrUnauthorized
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
	if amount.GreaterThan(fresh.Usable()) {
		return nil, nil, common.ErrInsufficientFunds
	}

	newSaver, err := tx.AdjustSmartSaver(ctx, goalID, amount)
	if err != nil {
		return nil, nil, err
	}

	entry := e.newEntry(ownerID, model.KindGoalDeposit, amount)
	entry.GoalID = goalID
	if err := tx.AppendEntry(ctx, entry); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit goal deposit: %w", err)
	}

	goal.SmartSaverBalance = newSaver
	return goal, entry, nil
}

// WithdrawFromSmartSaver releases the goal's entire smart-saver balance
// back to the usable balance in one operation; partial withdrawals are not
// supported.
func (e *Engine) WithdrawFromSmartSaver(ctx context.Context, ownerID, goalID string) (*model.FinancialGoal, *model.LedgerEntry, error) {
	goal, err := e.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, nil, err
	}
	if goal.OwnerID != ownerID {
		return nil, nil, common.ErrUnauthorized
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

	fresh, err := tx.GetGoal(ctx, goalID)
	if err != nil {
		return nil, nil, err
	}
	if !fresh.SmartSaverBalance.IsPositive() {
		return nil, nil, common.ErrNothingToWithdraw
	}

	amount := fresh.SmartSaverBalance
	if _, err := tx.AdjustSmartSaver(ctx, goalID, amount.Neg()); err != nil {
		return nil, nil, err
	}

	entry := e.newEntry(ownerID, model.KindGoalWithdraw, amount)
	entry.GoalID = goalID
	if err := tx.AppendEntry(ctx, entry); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit smart saver withdrawal: %w", err)
	}

	fresh.SmartSaverBalance = decimal.Zero
	return fresh, entry, nil
}
