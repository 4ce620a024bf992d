package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devananda/smartbank/internal/model"
	"github.com/devananda/smartbank/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// dbtx abstracts over *sql.DB and *sql.Tx so every query can run either
// standalone or inside an engine-owned transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections; a single connection
	// also guarantees statements inside a transaction never interleave.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new database transaction.
func (s *SQLiteStorage) BeginTx(ctx context.Context) (service.Tx, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	return &sqliteTx{
		tx:      tx,
		storage: s,
	}, nil
}

// sqliteTx wraps sql.Tx to implement service.Tx. All data methods delegate
// to the shared query implementations with the transaction as the querier.
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// Account operations.

func (s *SQLiteStorage) GetAccountByOwner(ctx context.Context, ownerID string) (*model.Account, error) {
	return s.getAccountByOwner(ctx, s.db, ownerID)
}

func (t *sqliteTx) GetAccountByOwner(ctx context.Context, ownerID string) (*model.Account, error) {
	return t.storage.getAccountByOwner(ctx, t.tx, ownerID)
}

func (s *SQLiteStorage) GetAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	return s.getAccountByNumber(ctx, s.db, accountNumber)
}

func (t *sqliteTx) GetAccountByNumber(ctx context.Context, accountNumber string) (*model.Account, error) {
	return t.storage.getAccountByNumber(ctx, t.tx, accountNumber)
}

func (s *SQLiteStorage) CreateAccount(ctx context.Context, ownerID, accountNumber string) (*model.Account, error) {
	return s.createAccount(ctx, s.db, ownerID, accountNumber)
}

func (t *sqliteTx) CreateAccount(ctx context.Context, ownerID, accountNumber string) (*model.Account, error) {
	return t.storage.createAccount(ctx, t.tx, ownerID, accountNumber)
}

func (s *SQLiteStorage) AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.adjustBalance(ctx, s.db, accountID, delta)
}

func (t *sqliteTx) AdjustBalance(ctx context.Context, accountID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	return t.storage.adjustBalance(ctx, t.tx, accountID, delta)
}

func (s *SQLiteStorage) DeleteAccount(ctx context.Context, accountID int64) error {
	return s.deleteAccount(ctx, s.db, accountID)
}

func (t *sqliteTx) DeleteAccount(ctx context.Context, accountID int64) error {
	return t.storage.deleteAccount(ctx, t.tx, accountID)
}

// Ledger operations.

func (s *SQLiteStorage) AppendEntry(ctx context.Context, entry *model.LedgerEntry) error {
	return s.appendEntry(ctx, s.db, entry)
}

func (t *sqliteTx) AppendEntry(ctx context.Context, entry *model.LedgerEntry) error {
	return t.storage.appendEntry(ctx, t.tx, entry)
}

func (s *SQLiteStorage) GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error) {
	return s.getEntry(ctx, s.db, id)
}

func (t *sqliteTx) GetEntry(ctx context.Context, id string) (*model.LedgerEntry, error) {
	return t.storage.getEntry(ctx, t.tx, id)
}

func (s *SQLiteStorage) ForEachEntry(ctx context.Context, ownerID string, filter service.EntryFilter, fn func(model.LedgerEntry) bool) error {
	return s.forEachEntry(ctx, s.db, ownerID, filter, fn)
}

func (t *sqliteTx) ForEachEntry(ctx context.Context, ownerID string, filter service.EntryFilter, fn func(model.LedgerEntry) bool) error {
	return t.storage.forEachEntry(ctx, t.tx, ownerID, filter, fn)
}

func (s *SQLiteStorage) QueryEntries(ctx context.Context, ownerID string, filter service.EntryFilter) ([]model.LedgerEntry, error) {
	return s.queryEntries(ctx, s.db, ownerID, filter)
}

func (t *sqliteTx) QueryEntries(ctx context.Context, ownerID string, filter service.EntryFilter) ([]model.LedgerEntry, error) {
	return t.storage.queryEntries(ctx, t.tx, ownerID, filter)
}

func (s *SQLiteStorage) SetEntryFraud(ctx context.Context, id string, isFraud bool) error {
	return s.setEntryFlag(ctx, s.db, id, "is_fraud", isFraud)
}

func (t *sqliteTx) SetEntryFraud(ctx context.Context, id string, isFraud bool) error {
	return t.storage.setEntryFlag(ctx, t.tx, id, "is_fraud", isFraud)
}

func (s *SQLiteStorage) SetEntryReported(ctx context.Context, id string, reported bool) error {
	return s.setEntryFlag(ctx, s.db, id, "reported", reported)
}

func (t *sqliteTx) SetEntryReported(ctx context.Context, id string, reported bool) error {
	return t.storage.setEntryFlag(ctx, t.tx, id, "reported", reported)
}

func (s *SQLiteStorage) DeleteEntriesByOwner(ctx context.Context, ownerID string) error {
	return s.deleteEntriesByOwner(ctx, s.db, ownerID)
}

func (t *sqliteTx) DeleteEntriesByOwner(ctx context.Context, ownerID string) error {
	return t.storage.deleteEntriesByOwner(ctx, t.tx, ownerID)
}

// Goal operations.

func (s *SQLiteStorage) CreateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	return s.createGoal(ctx, s.db, goal)
}

func (t *sqliteTx) CreateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	return t.storage.createGoal(ctx, t.tx, goal)
}

func (s *SQLiteStorage) GetGoal(ctx context.Context, id string) (*model.FinancialGoal, error) {
	return s.getGoal(ctx, s.db, id)
}

func (t *sqliteTx) GetGoal(ctx context.Context, id string) (*model.FinancialGoal, error) {
	return t.storage.getGoal(ctx, t.tx, id)
}

func (s *SQLiteStorage) ListGoals(ctx context.Context, ownerID string) ([]model.FinancialGoal, error) {
	return s.listGoals(ctx, s.db, ownerID)
}

func (t *sqliteTx) ListGoals(ctx context.Context, ownerID string) ([]model.FinancialGoal, error) {
	return t.storage.listGoals(ctx, t.tx, ownerID)
}

func (s *SQLiteStorage) LatestActiveGoal(ctx context.Context, ownerID string) (*model.FinancialGoal, error) {
	return s.latestActiveGoal(ctx, s.db, ownerID)
}

func (t *sqliteTx) LatestActiveGoal(ctx context.Context, ownerID string) (*model.FinancialGoal, error) {
	return t.storage.latestActiveGoal(ctx, t.tx, ownerID)
}

func (s *SQLiteStorage) UpdateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	return s.updateGoal(ctx, s.db, goal)
}

func (t *sqliteTx) UpdateGoal(ctx context.Context, goal *model.FinancialGoal) error {
	return t.storage.updateGoal(ctx, t.tx, goal)
}

func (s *SQLiteStorage) AdjustSmartSaver(ctx context.Context, goalID string, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.adjustSmartSaver(ctx, s.db, goalID, delta)
}

func (t *sqliteTx) AdjustSmartSaver(ctx context.Context, goalID string, delta decimal.Decimal) (decimal.Decimal, error) {
	return t.storage.adjustSmartSaver(ctx, t.tx, goalID, delta)
}

func (s *SQLiteStorage) SumSmartSaver(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	return s.sumSmartSaver(ctx, s.db, ownerID)
}

func (t *sqliteTx) SumSmartSaver(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	return t.storage.sumSmartSaver(ctx, t.tx, ownerID)
}

func (s *SQLiteStorage) DeleteGoal(ctx context.Context, id string) error {
	return s.deleteGoal(ctx, s.db, id)
}

func (t *sqliteTx) DeleteGoal(ctx context.Context, id string) error {
	return t.storage.deleteGoal(ctx, t.tx, id)
}

func (s *SQLiteStorage) DeleteGoalsByOwner(ctx context.Context, ownerID string) error {
	return s.deleteGoalsByOwner(ctx, s.db, ownerID)
}

func (t *sqliteTx) DeleteGoalsByOwner(ctx context.Context, ownerID string) error {
	return t.storage.deleteGoalsByOwner(ctx, t.tx, ownerID)
}

// Report operations.

func (s *SQLiteStorage) CreateReport(ctx context.Context, report *model.SpamReport) error {
	return s.createReport(ctx, s.db, report)
}

func (t *sqliteTx) CreateReport(ctx context.Context, report *model.SpamReport) error {
	return t.storage.createReport(ctx, t.tx, report)
}

func (s *SQLiteStorage) GetReport(ctx context.Context, id string) (*model.SpamReport, error) {
	return s.getReport(ctx, s.db, id)
}

func (t *sqliteTx) GetReport(ctx context.Context, id string) (*model.SpamReport, error) {
	return t.storage.getReport(ctx, t.tx, id)
}

func (s *SQLiteStorage) FindOpenReport(ctx context.Context, reporterID, transactionID string) (*model.SpamReport, error) {
	return s.findOpenReport(ctx, s.db, reporterID, transactionID)
}

func (t *sqliteTx) FindOpenReport(ctx context.Context, reporterID, transactionID string) (*model.SpamReport, error) {
	return t.storage.findOpenReport(ctx, t.tx, reporterID, transactionID)
}

func (s *SQLiteStorage) ListReports(ctx context.Context, filter service.ReportFilter) ([]model.SpamReport, error) {
	return s.listReports(ctx, s.db, filter)
}

func (t *sqliteTx) ListReports(ctx context.Context, filter service.ReportFilter) ([]model.SpamReport, error) {
	return t.storage.listReports(ctx, t.tx, filter)
}

func (s *SQLiteStorage) SetReportStatus(ctx context.Context, id string, status model.ReportStatus) error {
	return s.setReportStatus(ctx, s.db, id, status)
}

func (t *sqliteTx) SetReportStatus(ctx context.Context, id string, status model.ReportStatus) error {
	return t.storage.setReportStatus(ctx, t.tx, id, status)
}

func (s *SQLiteStorage) DeleteReport(ctx context.Context, id string) error {
	return s.deleteReport(ctx, s.db, id)
}

func (t *sqliteTx) DeleteReport(ctx context.Context, id string) error {
	return t.storage.deleteReport(ctx, t.tx, id)
}

func (s *SQLiteStorage) DeleteReportsByOwner(ctx context.Context, ownerID string) error {
	return s.deleteReportsByOwner(ctx, s.db, ownerID)
}

func (t *sqliteTx) DeleteReportsByOwner(ctx context.Context, ownerID string) error {
	return t.storage.deleteReportsByOwner(ctx, t.tx, ownerID)
}

// scanDecimal parses a TEXT column holding a canonical decimal string.
func scanDecimal(raw string, column string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt decimal in %s: %w", column, err)
	}
	return d, nil
}

// nullableTime converts a possibly-zero time into a driver value.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
