package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner_id TEXT UNIQUE NOT NULL,
					account_number TEXT UNIQUE NOT NULL,
					balance TEXT NOT NULL DEFAULT '0',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS ledger_entries (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					amount TEXT NOT NULL,
					counterparty_account TEXT,
					goal_id TEXT,
					timestamp DATETIME NOT NULL,
					is_fraud BOOLEAN DEFAULT 0
				)`,
				`CREATE INDEX idx_ledger_entries_owner ON ledger_entries(owner_id)`,
				`CREATE INDEX idx_ledger_entries_timestamp ON ledger_entries(timestamp)`,

				`CREATE TABLE IF NOT EXISTS financial_goals (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					name TEXT NOT NULL DEFAULT '',
					target_amount TEXT NOT NULL DEFAULT '0',
					deadline DATETIME,
					saving_mode TEXT NOT NULL DEFAULT 'NONE',
					daily_amount TEXT NOT NULL DEFAULT '0',
					weekly_amount TEXT NOT NULL DEFAULT '0',
					monthly_amount TEXT NOT NULL DEFAULT '0',
					yearly_amount TEXT NOT NULL DEFAULT '0',
					smart_saver_balance TEXT NOT NULL DEFAULT '0',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_financial_goals_owner ON financial_goals(owner_id)`,

				`CREATE TABLE IF NOT EXISTS spam_reports (
					id TEXT PRIMARY KEY,
					transaction_id TEXT NOT NULL,
					reporter_id TEXT NOT NULL,
					reported_owner_id TEXT,
					reason TEXT NOT NULL DEFAULT '',
					timestamp DATETIME NOT NULL,
					status TEXT NOT NULL DEFAULT 'OPEN',
					FOREIGN KEY (transaction_id) REFERENCES ledger_entries(id)
				)`,
				`CREATE INDEX idx_spam_reports_transaction ON spam_reports(transaction_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add owner-visible reported flag to ledger entries",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				ALTER TABLE ledger_entries
				ADD COLUMN reported BOOLEAN DEFAULT 0
			`)
			if err != nil {
				return fmt.Errorf("failed to add reported column: %w", err)
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Enforce one open report per reporter and transaction",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_spam_reports_open_pair
					ON spam_reports(reporter_id, transaction_id) WHERE status = 'OPEN'`,
				`CREATE INDEX IF NOT EXISTS idx_spam_reports_status ON spam_reports(status)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
