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

const reportColumns = `id, transaction_id, reporter_id, reported_owner_id, reason, timestamp, status`

func (s *SQLiteStorage) createReport(ctx context.Context, q dbtx, report *model.SpamReport) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("%w: report", ErrNilParameter)
	}
	if err := validateString(report.ID, "report.ID"); err != nil {
		return err
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO spam_reports (
			id, transaction_id, reporter_id, reported_owner_id, reason, timestamp, status
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		report.ID,
		report.TransactionID,
		report.ReporterID,
		report.ReportedOwnerID,
		report.Reason,
		report.Timestamp.UTC(),
		string(report.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) getReport(ctx context.Context, q dbtx, id string) (*model.SpamReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM spam_reports WHERE id = ?`, id)
	report, err := scanReport(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *SQLiteStorage) findOpenReport(ctx context.Context, q dbtx, reporterID, transactionID string) (*model.SpamReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(reporterID, "reporterID"); err != nil {
		return nil, err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `
		SELECT `+reportColumns+` FROM spam_reports
		WHERE reporter_id = ? AND transaction_id = ? AND status = 'OPEN'
	`, reporterID, transactionID)

	report, err := scanReport(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (s *SQLiteStorage) listReports(ctx context.Context, q dbtx, filter service.ReportFilter) ([]model.SpamReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + reportColumns + ` FROM spam_reports WHERE 1=1`)
	var args []any

	if filter.Status != nil {
		sb.WriteString(" AND status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.StartDate != nil {
		sb.WriteString(" AND timestamp >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		sb.WriteString(" AND timestamp <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if filter.Search != "" {
		sb.WriteString(" AND reason LIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}
	sb.WriteString(" ORDER BY timestamp DESC, rowid DESC")

	rows, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reports []model.SpamReport
	for rows.Next() {
		report, scanErr := scanReport(rows.Scan)
		if scanErr != nil {
			return nil, scanErr
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func (s *SQLiteStorage) setReportStatus(ctx context.Context, q dbtx, id string, status model.ReportStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `UPDATE spam_reports SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return common.ErrReportNotFound
	}
	return nil
}

func (s *SQLiteStorage) deleteReport(ctx context.Context, q dbtx, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `DELETE FROM spam_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return common.ErrReportNotFound
	}
	return nil
}

func (s *SQLiteStorage) deleteReportsByOwner(ctx context.Context, q dbtx, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}

	if _, err := q.ExecContext(ctx, `
		DELETE FROM spam_reports WHERE reporter_id = ? OR reported_owner_id = ?
	`, ownerID, ownerID); err != nil {
		return fmt.Errorf("failed to delete reports: %w", err)
	}
	return nil
}

func scanReport(scan func(dest ...any) error) (*model.SpamReport, error) {
	var report model.SpamReport
	var reportedOwner sql.NullString

	err := scan(
		&report.ID,
		&report.TransactionID,
		&report.ReporterID,
		&reportedOwner,
		&report.Reason,
		&report.Timestamp,
		&report.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	report.ReportedOwnerID = reportedOwner.String
	return &report, nil
}
