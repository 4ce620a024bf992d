package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/model"
)

const goalColumns = `id, owner_id, name, target_amount, deadline, saving_mode,
	daily_amount, weekly_amount, monthly_amount, yearly_amount,
	smart_saver_balance, created_at`

func (s *SQLiteStorage) createGoal(ctx context.Context, q dbtx, goal *model.FinancialGoal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO financial_goals (
			id, owner_id, name, target_amount, deadline, saving_mode,
			daily_amount, weekly_amount, monthly_amount, yearly_amount,
			smart_saver_balance, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		goal.ID,
		goal.OwnerID,
		goal.Name,
		goal.TargetAmount.String(),
		nullableTime(goal.Deadline),
		string(goal.SavingMode),
		goal.DailyAmount.String(),
		goal.WeeklyAmount.String(),
		goal.MonthlyAmount.String(),
		goal.YearlyAmount.String(),
		goal.SmartSaverBalance.String(),
		goal.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) getGoal(ctx context.Context, q dbtx, id string) (*model.FinancialGoal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM financial_goals WHERE id = ?`, id)
	goal, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *SQLiteStorage) listGoals(ctx context.Context, q dbtx, ownerID string) ([]model.FinancialGoal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT `+goalColumns+` FROM financial_goals
		WHERE owner_id = ? ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var goals []model.FinancialGoal
	for rows.Next() {
		goal, scanErr := scanGoal(rows.Scan)
		if scanErr != nil {
			return nil, scanErr
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}

// latestActiveGoal returns the owner's most recently created goal with a
// saving schedule, or nil when no goal constrains withdrawals.
func (s *SQLiteStorage) latestActiveGoal(ctx context.Context, q dbtx, ownerID string) (*model.FinancialGoal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `
		SELECT `+goalColumns+` FROM financial_goals
		WHERE owner_id = ? AND saving_mode != 'NONE'
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, ownerID)

	goal, err := scanGoal(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *SQLiteStorage) updateGoal(ctx context.Context, q dbtx, goal *model.FinancialGoal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGoal(goal); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		UPDATE financial_goals SET
			name = ?, target_amount = ?, deadline = ?, saving_mode = ?,
			daily_amount = ?, weekly_amount = ?, monthly_amount = ?, yearly_amount = ?
		WHERE id = ?
	`,
		goal.Name,
		goal.TargetAmount.String(),
		nullableTime(goal.Deadline),
		string(goal.SavingMode),
		goal.DailyAmount.String(),
		goal.WeeklyAmount.String(),
		goal.MonthlyAmount.String(),
		goal.YearlyAmount.String(),
		goal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return common.ErrGoalNotFound
	}
	return nil
}

// adjustSmartSaver applies smart_saver_balance += delta, rejecting any
// result below zero. Runs under the owner's account lock like balance
// adjustments.
func (s *SQLiteStorage) adjustSmartSaver(ctx context.Context, q dbtx, goalID string, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(goalID, "goalID"); err != nil {
		return decimal.Zero, err
	}

	var raw string
	err := q.QueryRowContext(ctx, `SELECT smart_saver_balance FROM financial_goals WHERE id = ?`, goalID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, common.ErrGoalNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read smart saver balance: %w", err)
	}

	balance, err := scanDecimal(raw, "financial_goals.smart_saver_balance")
	if err != nil {
		return decimal.Zero, err
	}

	next := balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, common.ErrInsufficientFunds
	}

	if _, err := q.ExecContext(ctx, `UPDATE financial_goals SET smart_saver_balance = ? WHERE id = ?`, next.String(), goalID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update smart saver balance: %w", err)
	}
	return next, nil
}

func (s *SQLiteStorage) sumSmartSaver(ctx context.Context, q dbtx, ownerID string) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return decimal.Zero, err
	}

	rows, err := q.QueryContext(ctx, `SELECT smart_saver_balance FROM financial_goals WHERE owner_id = ?`, ownerID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query smart saver balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Decimal columns are stored as text, so the sum happens here rather
	// than in SQL.
	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan smart saver balance: %w", err)
		}
		d, err := scanDecimal(raw, "financial_goals.smart_saver_balance")
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (s *SQLiteStorage) deleteGoal(ctx context.Context, q dbtx, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `DELETE FROM financial_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return common.ErrGoalNotFound
	}
	return nil
}

func (s *SQLiteStorage) deleteGoalsByOwner(ctx context.Context, q dbtx, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM financial_goals WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete goals: %w", err)
	}
	return nil
}

func scanGoal(scan func(dest ...any) error) (*model.FinancialGoal, error) {
	var goal model.FinancialGoal
	var target, daily, weekly, monthly, yearly, saver string
	var deadline sql.NullTime

	err := scan(
		&goal.ID,
		&goal.OwnerID,
		&goal.Name,
		&target,
		&deadline,
		&goal.SavingMode,
		&daily,
		&weekly,
		&monthly,
		&yearly,
		&saver,
		&goal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan goal: %w", err)
	}

	if goal.TargetAmount, err = scanDecimal(target, "financial_goals.target_amount"); err != nil {
		return nil, err
	}
	if goal.DailyAmount, err = scanDecimal(daily, "financial_goals.daily_amount"); err != nil {
		return nil, err
	}
	if goal.WeeklyAmount, err = scanDecimal(weekly, "financial_goals.weekly_amount"); err != nil {
		return nil, err
	}
	if goal.MonthlyAmount, err = scanDecimal(monthly, "financial_goals.monthly_amount"); err != nil {
		return nil, err
	}
	if goal.YearlyAmount, err = scanDecimal(yearly, "financial_goals.yearly_amount"); err != nil {
		return nil, err
	}
	if goal.SmartSaverBalance, err = scanDecimal(saver, "financial_goals.smart_saver_balance"); err != nil {
		return nil, err
	}
	if deadline.Valid {
		goal.Deadline = deadline.Time
	}
	return &goal, nil
}
