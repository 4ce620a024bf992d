package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/model"
	"github.com/devananda/smartbank/internal/service"
)

// ReportTransaction toggles the reporter's fraud report on a ledger entry.
// With no open report from this reporter, one is created and the entry's
// fraud flag is set; with one already open, it is retracted and the fraud
// flag left as-is. Two identical calls therefore net to zero reports.
func (e *Engine) ReportTransaction(ctx context.Context, reporterID, transactionID, reason string) (*model.SpamReport, error) {
	entry, err := e.store.GetEntry(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := tx.FindOpenReport(ctx, reporterID, transactionID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := tx.DeleteReport(ctx, existing.ID); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit report retraction: %w", err)
		}
		return nil, nil
	}

	report := &model.SpamReport{
		ID:              uuid.NewString(),
		TransactionID:   transactionID,
		ReporterID:      reporterID,
		ReportedOwnerID: entry.OwnerID,
		Reason:          reason,
		Timestamp:       e.clock.Now().UTC(),
		Status:          model.ReportStatusOpen,
	}
	if err := tx.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	if err := tx.SetEntryFraud(ctx, transactionID, true); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit report: %w", err)
	}
	return report, nil
}

// ToggleReported flips the owner-visible reported flag on the owner's own
// ledger entry and returns the new value.
func (e *Engine) ToggleReported(ctx context.Context, ownerID, transactionID string) (bool, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	entry, err := tx.GetEntry(ctx, transactionID)
	if err != nil {
		return false, err
	}
	if entry.OwnerID != ownerID {
		return false, common.ErrUnauthorized
	}

	reported := !entry.Reported
	if err := tx.SetEntryReported(ctx, transactionID, reported); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit reported toggle: %w", err)
	}
	return reported, nil
}

// ResolveReport transitions an open report to Resolved. Resolved is
// terminal. Staff-only; authorization is enforced by the caller's
// access-control layer.
func (e *Engine) ResolveReport(ctx context.Context, reportID string) (*model.SpamReport, error) {
	report, err := e.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.Status == model.ReportStatusResolved {
		return nil, common.ErrReportResolved
	}

	if err := e.store.SetReportStatus(ctx, reportID, model.ReportStatusResolved); err != nil {
		return nil, err
	}
	report.Status = model.ReportStatusResolved
	return report, nil
}

// DeleteReport removes a report record entirely. Staff-only.
func (e *Engine) DeleteReport(ctx context.Context, reportID string) error {
	return e.store.DeleteReport(ctx, reportID)
}

// ListReports returns reports matching the filter, newest first. Staff-only.
func (e *Engine) ListReports(ctx context.Context, filter service.ReportFilter) ([]model.SpamReport, error) {
	return e.store.ListReports(ctx, filter)
}
