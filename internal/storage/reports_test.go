package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/model"
	"github.com/devananda/smartbank/internal/service"
	"github.com/devananda/smartbank/internal/storage"
	"github.com/devananda/smartbank/internal/testutil"
)

// filedReport creates a ledger entry and an open report against it,
// satisfying the reports table's foreign key.
func filedReport(t *testing.T, store *storage.SQLiteStorage, reportID, txID, reporter string, ts time.Time) *model.SpamReport {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.AppendEntry(ctx, &model.LedgerEntry{
		ID: txID, OwnerID: "alice", Kind: model.KindDeposit,
		Amount: decimal.NewFromInt(10), Timestamp: ts,
	}))

	report := &model.SpamReport{
		ID:              reportID,
		TransactionID:   txID,
		ReporterID:      reporter,
		ReportedOwnerID: "alice",
		Reason:          "unexpected charge",
		Timestamp:       ts,
		Status:          model.ReportStatusOpen,
	}
	require.NoError(t, store.CreateReport(ctx, report))
	return report
}

func TestCreateAndGetReport(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	filedReport(t, store, "r1", "tx1", "bob", time.Now().UTC())

	report, err := store.GetReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "tx1", report.TransactionID)
	assert.Equal(t, "bob", report.ReporterID)
	assert.Equal(t, "alice", report.ReportedOwnerID)
	assert.Equal(t, model.ReportStatusOpen, report.Status)

	_, err = store.GetReport(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrReportNotFound)
}

func TestOpenReportPairIsUnique(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	filedReport(t, store, "r1", "tx1", "bob", time.Now().UTC())

	// Second open report from the same reporter on the same entry must be
	// rejected by the partial unique index.
	err := store.CreateReport(ctx, &model.SpamReport{
		ID: "r2", TransactionID: "tx1", ReporterID: "bob",
		Timestamp: time.Now().UTC(), Status: model.ReportStatusOpen,
	})
	assert.Error(t, err)

	// A different reporter is fine.
	err = store.CreateReport(ctx, &model.SpamReport{
		ID: "r3", TransactionID: "tx1", ReporterID: "carol",
		Timestamp: time.Now().UTC(), Status: model.ReportStatusOpen,
	})
	assert.NoError(t, err)

	// So is a second report once the first is resolved.
	require.NoError(t, store.SetReportStatus(ctx, "r1", model.ReportStatusResolved))
	err = store.CreateReport(ctx, &model.SpamReport{
		ID: "r4", TransactionID: "tx1", ReporterID: "bob",
		Timestamp: time.Now().UTC(), Status: model.ReportStatusOpen,
	})
	assert.NoError(t, err)
}

func TestFindOpenReport(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	report, err := store.FindOpenReport(ctx, "bob", "tx1")
	require.NoError(t, err)
	assert.Nil(t, report, "absence is not an error")

	filedReport(t, store, "r1", "tx1", "bob", time.Now().UTC())

	report, err = store.FindOpenReport(ctx, "bob", "tx1")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "r1", report.ID)

	require.NoError(t, store.SetReportStatus(ctx, "r1", model.ReportStatusResolved))
	report, err = store.FindOpenReport(ctx, "bob", "tx1")
	require.NoError(t, err)
	assert.Nil(t, report, "resolved reports are not open")
}

func TestListReports(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	filedReport(t, store, "r1", "tx1", "bob", base)
	filedReport(t, store, "r2", "tx2", "carol", base.AddDate(0, 0, 2))
	require.NoError(t, store.SetReportStatus(ctx, "r2", model.ReportStatusResolved))

	t.Run("all newest first", func(t *testing.T) {
		reports, err := store.ListReports(ctx, service.ReportFilter{})
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, "r2", reports[0].ID)
	})

	t.Run("by status", func(t *testing.T) {
		open := model.ReportStatusOpen
		reports, err := store.ListReports(ctx, service.ReportFilter{Status: &open})
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, "r1", reports[0].ID)
	})

	t.Run("by date", func(t *testing.T) {
		start := base.AddDate(0, 0, 1)
		reports, err := store.ListReports(ctx, service.ReportFilter{StartDate: &start})
		require.NoError(t, err)
		require.Len(t, reports, 1)
		assert.Equal(t, "r2", reports[0].ID)
	})

	t.Run("by reason substring", func(t *testing.T) {
		reports, err := store.ListReports(ctx, service.ReportFilter{Search: "unexpected"})
		require.NoError(t, err)
		assert.Len(t, reports, 2)

		reports, err = store.ListReports(ctx, service.ReportFilter{Search: "nothing like this"})
		require.NoError(t, err)
		assert.Empty(t, reports)
	})
}

func TestDeleteReport(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	filedReport(t, store, "r1", "tx1", "bob", time.Now().UTC())

	require.NoError(t, store.DeleteReport(ctx, "r1"))
	assert.ErrorIs(t, store.DeleteReport(ctx, "r1"), common.ErrReportNotFound)
}

func TestDeleteReportsByOwner(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	// bob reported alice's entry; alice's erasure must remove it whether
	// she was reporter or reported.
	filedReport(t, store, "r1", "tx1", "bob", time.Now().UTC())

	require.NoError(t, store.DeleteReportsByOwner(ctx, "alice"))
	_, err := store.GetReport(ctx, "r1")
	assert.ErrorIs(t, err, common.ErrReportNotFound)
}
