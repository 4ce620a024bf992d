package storage_test

import (
	"context"
	"fmt"
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

func appendTestEntry(t *testing.T, store *storage.SQLiteStorage, entry *model.LedgerEntry) *model.LedgerEntry {
	t.Helper()
	if entry.Amount.IsZero() {
		entry.Amount = decimal.NewFromInt(10)
	}
	require.NoError(t, store.AppendEntry(context.Background(), entry))
	return entry
}

func TestAppendEntry(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	entry := &model.LedgerEntry{
		ID:        "e1",
		OwnerID:   "alice",
		Kind:      model.KindDeposit,
		Amount:    decimal.NewFromInt(100),
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, store.AppendEntry(ctx, entry))
	assert.NotZero(t, entry.Seq, "append must assign a sequence number")

	got, err := store.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, model.KindDeposit, got.Kind)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, entry.Seq, got.Seq)
	assert.False(t, got.IsFraud)
	assert.False(t, got.Reported)
}

func TestAppendEntryValidation(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		entry *model.LedgerEntry
		name  string
	}{
		{name: "nil entry", entry: nil},
		{name: "missing id", entry: &model.LedgerEntry{OwnerID: "a", Kind: model.KindDeposit, Amount: decimal.NewFromInt(1), Timestamp: now}},
		{name: "missing owner", entry: &model.LedgerEntry{ID: "x", Kind: model.KindDeposit, Amount: decimal.NewFromInt(1), Timestamp: now}},
		{name: "bad kind", entry: &model.LedgerEntry{ID: "x", OwnerID: "a", Kind: "BOGUS", Amount: decimal.NewFromInt(1), Timestamp: now}},
		{name: "zero amount", entry: &model.LedgerEntry{ID: "x", OwnerID: "a", Kind: model.KindDeposit, Timestamp: now}},
		{name: "negative amount", entry: &model.LedgerEntry{ID: "x", OwnerID: "a", Kind: model.KindDeposit, Amount: decimal.NewFromInt(-1), Timestamp: now}},
		{name: "zero timestamp", entry: &model.LedgerEntry{ID: "x", OwnerID: "a", Kind: model.KindDeposit, Amount: decimal.NewFromInt(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, store.AppendEntry(ctx, tt.entry))
		})
	}
}

func TestGetEntryNotFound(t *testing.T) {
	store := testutil.SetupTestDB(t)

	_, err := store.GetEntry(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrTransactionNotFound)
}

func TestQueryEntriesOrderingAndSeq(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	// Same timestamp for all three; rowid must break the tie so the
	// newest append comes back first.
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		appendTestEntry(t, store, &model.LedgerEntry{
			ID:        fmt.Sprintf("e%d", i),
			OwnerID:   "alice",
			Kind:      model.KindDeposit,
			Timestamp: ts,
		})
	}

	entries, err := store.QueryEntries(ctx, "alice", service.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e3", entries[0].ID)
	assert.Equal(t, "e2", entries[1].ID)
	assert.Equal(t, "e1", entries[2].ID)
	assert.Greater(t, entries[0].Seq, entries[1].Seq)
}

func TestQueryEntriesFilters(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	appendTestEntry(t, store, &model.LedgerEntry{
		ID: "deposit1", OwnerID: "alice", Kind: model.KindDeposit, Timestamp: base,
	})
	appendTestEntry(t, store, &model.LedgerEntry{
		ID: "withdraw1", OwnerID: "alice", Kind: model.KindWithdraw, Timestamp: base.AddDate(0, 0, 1),
	})
	appendTestEntry(t, store, &model.LedgerEntry{
		ID: "sent1", OwnerID: "alice", Kind: model.KindTransferSent,
		CounterpartyAccount: "SB00000042", Timestamp: base.AddDate(0, 0, 2),
	})
	appendTestEntry(t, store, &model.LedgerEntry{
		ID: "other1", OwnerID: "bob", Kind: model.KindDeposit, Timestamp: base,
	})

	t.Run("owner scoping", func(t *testing.T) {
		entries, err := store.QueryEntries(ctx, "alice", service.EntryFilter{})
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("by kind", func(t *testing.T) {
		entries, err := store.QueryEntries(ctx, "alice", service.EntryFilter{
			Kinds: []model.EntryKind{model.KindWithdraw, model.KindTransferSent},
		})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "sent1", entries[0].ID)
		assert.Equal(t, "withdraw1", entries[1].ID)
	})

	t.Run("by date range", func(t *testing.T) {
		start := base.AddDate(0, 0, 1)
		end := base.AddDate(0, 0, 1)
		entries, err := store.QueryEntries(ctx, "alice", service.EntryFilter{
			StartDate: &start,
			EndDate:   &end,
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "withdraw1", entries[0].ID)
	})

	t.Run("by counterparty substring", func(t *testing.T) {
		entries, err := store.QueryEntries(ctx, "alice", service.EntryFilter{Counterparty: "42"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "sent1", entries[0].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		entries, err := store.QueryEntries(ctx, "alice", service.EntryFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "withdraw1", entries[0].ID)
	})
}

func TestForEachEntryStopsEarly(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		appendTestEntry(t, store, &model.LedgerEntry{
			ID: fmt.Sprintf("e%d", i), OwnerID: "alice", Kind: model.KindDeposit,
			Timestamp: time.Now().UTC(),
		})
	}

	seen := 0
	err := store.ForEachEntry(ctx, "alice", service.EntryFilter{}, func(model.LedgerEntry) bool {
		seen++
		return seen < 2
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}

func TestSetEntryFlags(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	appendTestEntry(t, store, &model.LedgerEntry{
		ID: "e1", OwnerID: "alice", Kind: model.KindDeposit, Timestamp: time.Now().UTC(),
	})

	require.NoError(t, store.SetEntryFraud(ctx, "e1", true))
	require.NoError(t, store.SetEntryReported(ctx, "e1", true))

	entry, err := store.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, entry.IsFraud)
	assert.True(t, entry.Reported)

	require.NoError(t, store.SetEntryReported(ctx, "e1", false))
	entry, err = store.GetEntry(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, entry.IsFraud, "fraud flag must survive a reported toggle")
	assert.False(t, entry.Reported)

	assert.ErrorIs(t, store.SetEntryFraud(ctx, "missing", true), common.ErrTransactionNotFound)
}

func TestDeleteEntriesByOwner(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	appendTestEntry(t, store, &model.LedgerEntry{
		ID: "e1", OwnerID: "alice", Kind: model.KindDeposit, Timestamp: time.Now().UTC(),
	})
	appendTestEntry(t, store, &model.LedgerEntry{
		ID: "e2", OwnerID: "bob", Kind: model.KindDeposit, Timestamp: time.Now().UTC(),
	})

	require.NoError(t, store.DeleteEntriesByOwner(ctx, "alice"))

	_, err := store.GetEntry(ctx, "e1")
	assert.ErrorIs(t, err, common.ErrTransactionNotFound)

	_, err = store.GetEntry(ctx, "e2")
	assert.NoError(t, err)
}
