package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/model"
	"github.com/devananda/smartbank/internal/service"
)

func (s *SQLiteStorage) appendEntry(ctx context.Context, q dbtx, entry *model.LedgerEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO ledger_entries (
			id, owner_id, kind, amount, counterparty_account, goal_id,
			timestamp, is_fraud, reported
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID,
		entry.OwnerID,
		string(entry.Kind),
		entry.Amount.String(),
		entry.CounterpartyAccount,
		entry.GoalID,
		entry.Timestamp.UTC(),
		entry.IsFraud,
		entry.Reported,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	// rowid doubles as the insertion-order tiebreaker for query ordering.
	seq, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read entry sequence: %w", err)
	}
	entry.Seq = seq
	return nil
}

func (s *SQLiteStorage) getEntry(ctx context.Context, q dbtx, id string) (*model.LedgerEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `
		SELECT rowid, id, owner_id, kind, amount, counterparty_account, goal_id,
			timestamp, is_fraud, reported
		FROM ledger_entries WHERE id = ?
	`, id)

	entry, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// forEachEntry streams the owner's entries newest first, applying the
// advisory filter in SQL. fn returning false stops the scan early.
func (s *SQLiteStorage) forEachEntry(ctx context.Context, q dbtx, ownerID string, filter service.EntryFilter, fn func(model.LedgerEntry) bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("%w: fn", ErrNilParameter)
	}

	query, args := buildEntryQuery(ownerID, filter)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		entry, scanErr := scanEntry(rows.Scan)
		if scanErr != nil {
			return scanErr
		}
		if !fn(*entry) {
			break
		}
	}
	return rows.Err()
}

func (s *SQLiteStorage) queryEntries(ctx context.Context, q dbtx, ownerID string, filter service.EntryFilter) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	err := s.forEachEntry(ctx, q, ownerID, filter, func(entry model.LedgerEntry) bool {
		entries = append(entries, entry)
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func buildEntryQuery(ownerID string, filter service.EntryFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT rowid, id, owner_id, kind, amount, counterparty_account, goal_id,
			timestamp, is_fraud, reported
		FROM ledger_entries WHERE owner_id = ?`)
	args := []any{ownerID}

	if len(filter.Kinds) > 0 {
		sb.WriteString(" AND kind IN (?" + strings.Repeat(", ?", len(filter.Kinds)-1) + ")")
		for _, kind := range filter.Kinds {
			args = append(args, string(kind))
		}
	}
	if filter.StartDate != nil {
		sb.WriteString(" AND timestamp >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		sb.WriteString(" AND timestamp <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if filter.Counterparty != "" {
		sb.WriteString(" AND counterparty_account LIKE ?")
		args = append(args, "%"+filter.Counterparty+"%")
	}

	sb.WriteString(" ORDER BY timestamp DESC, rowid DESC")

	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, filter.Offset)
		}
	}
	return sb.String(), args
}

func scanEntry(scan func(dest ...any) error) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	var amount string
	var counterparty, goalID sql.NullString

	err := scan(
		&entry.Seq,
		&entry.ID,
		&entry.OwnerID,
		&entry.Kind,
		&amount,
		&counterparty,
		&goalID,
		&entry.Timestamp,
		&entry.IsFraud,
		&entry.Reported,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}

	if entry.Amount, err = scanDecimal(amount, "ledger_entries.amount"); err != nil {
		return nil, err
	}
	entry.CounterpartyAccount = counterparty.String
	entry.GoalID = goalID.String
	return &entry, nil
}

// setEntryFlag toggles one of the two mutable columns on an otherwise
// immutable entry.
func (s *SQLiteStorage) setEntryFlag(ctx context.Context, q dbtx, id, column string, value bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	var query string
	switch column {
	case "is_fraud":
		query = `UPDATE ledger_entries SET is_fraud = ? WHERE id = ?`
	case "reported":
		query = `UPDATE ledger_entries SET reported = ? WHERE id = ?`
	default:
		return fmt.Errorf("column %q is not mutable", column)
	}

	res, err := q.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return common.ErrTransactionNotFound
	}
	return nil
}

func (s *SQLiteStorage) deleteEntriesByOwner(ctx context.Context, q dbtx, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM ledger_entries WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("failed to delete ledger entries: %w", err)
	}
	return nil
}
