package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/model"
)

func (s *SQLiteStorage) getAccountByOwner(ctx context.Context, q dbtx, ownerID string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `
		SELECT id, owner_id, account_number, balance, created_at
		FROM accounts WHERE owner_id = ?
	`, ownerID)
	return s.scanAccount(ctx, q, row)
}

func (s *SQLiteStorage) getAccountByNumber(ctx context.Context, q dbtx, accountNumber string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountNumber, "accountNumber"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `
		SELECT id, owner_id, account_number, balance, created_at
		FROM accounts WHERE account_number = ?
	`, accountNumber)
	return s.scanAccount(ctx, q, row)
}

func (s *SQLiteStorage) scanAccount(ctx context.Context, q dbtx, row *sql.Row) (*model.Account, error) {
	var acct model.Account
	var balance string
	err := row.Scan(&acct.ID, &acct.OwnerID, &acct.AccountNumber, &balance, &acct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	if acct.Balance, err = scanDecimal(balance, "accounts.balance"); err != nil {
		return nil, err
	}

	// Reserved is derived from the owner's goals on every read.
	if acct.Reserved, err = s.sumSmartSaver(ctx, q, acct.OwnerID); err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *SQLiteStorage) createAccount(ctx context.Context, q dbtx, ownerID, accountNumber string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}
	if err := validateString(accountNumber, "accountNumber"); err != nil {
		return nil, err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (owner_id, account_number, balance)
		VALUES (?, ?, '0')
	`, ownerID, accountNumber)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, fmt.Errorf("%w: account for owner %s", common.ErrDuplicateEntry, ownerID)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// Re-read so the caller sees the database-assigned id and created_at.
	return s.getAccountByOwner(ctx, q, ownerID)
}

// adjustBalance applies balance += delta, rejecting any result below zero.
// Callers run this inside a transaction under the account's lock, which
// makes the read-modify-write effectively a compare-and-set.
func (s *SQLiteStorage) adjustBalance(ctx context.Context, q dbtx, accountID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return decimal.Zero, err
	}

	var raw string
	err := q.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = ?`, accountID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, common.ErrAccountNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}

	balance, err := scanDecimal(raw, "accounts.balance")
	if err != nil {
		return decimal.Zero, err
	}

	next := balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, common.ErrInsufficientFunds
	}

	if _, err := q.ExecContext(ctx, `UPDATE accounts SET balance = ? WHERE id = ?`, next.String(), accountID); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", err)
	}
	return next, nil
}

func (s *SQLiteStorage) deleteAccount(ctx context.Context, q dbtx, accountID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return common.ErrAccountNotFound
	}
	return nil
}
