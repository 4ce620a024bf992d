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
	"github.com/devananda/smartbank/internal/storage"
	"github.com/devananda/smartbank/internal/testutil"
)

func createTestGoal(t *testing.T, store *storage.SQLiteStorage, goal *model.FinancialGoal) *model.FinancialGoal {
	t.Helper()
	if goal.OwnerID == "" {
		goal.OwnerID = "alice"
	}
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = time.Now().UTC()
	}
	if goal.SavingMode == "" {
		goal.SavingMode = model.SavingModeNone
	}
	require.NoError(t, store.CreateGoal(context.Background(), goal))
	return goal
}

func TestCreateAndGetGoal(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	deadline := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	createTestGoal(t, store, &model.FinancialGoal{
		ID:           "g1",
		Name:         "house deposit",
		TargetAmount: decimal.NewFromInt(25000),
		Deadline:     deadline,
		SavingMode:   model.SavingModeMonthly,
		MonthlyAmount: decimal.NewFromInt(500),
	})

	goal, err := store.GetGoal(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "house deposit", goal.Name)
	assert.Equal(t, model.SavingModeMonthly, goal.SavingMode)
	assert.True(t, goal.TargetAmount.Equal(decimal.NewFromInt(25000)))
	assert.True(t, goal.MonthlyAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, goal.SmartSaverBalance.IsZero())
	assert.True(t, goal.Deadline.Equal(deadline))

	_, err = store.GetGoal(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrGoalNotFound)
}

func TestListGoals(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	createTestGoal(t, store, &model.FinancialGoal{ID: "g1", Name: "first", CreatedAt: base})
	createTestGoal(t, store, &model.FinancialGoal{ID: "g2", Name: "second", CreatedAt: base.AddDate(0, 1, 0)})
	createTestGoal(t, store, &model.FinancialGoal{ID: "g3", Name: "other owner", OwnerID: "bob"})

	goals, err := store.ListGoals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "g2", goals[0].ID, "newest goal first")
	assert.Equal(t, "g1", goals[1].ID)
}

func TestLatestActiveGoal(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	t.Run("no goals", func(t *testing.T) {
		goal, err := store.LatestActiveGoal(ctx, "alice")
		require.NoError(t, err)
		assert.Nil(t, goal)
	})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	createTestGoal(t, store, &model.FinancialGoal{
		ID: "old-active", SavingMode: model.SavingModeDaily,
		DailyAmount: decimal.NewFromInt(5), CreatedAt: base,
	})
	createTestGoal(t, store, &model.FinancialGoal{
		ID: "new-active", SavingMode: model.SavingModeWeekly,
		WeeklyAmount: decimal.NewFromInt(20), CreatedAt: base.AddDate(0, 1, 0),
	})
	createTestGoal(t, store, &model.FinancialGoal{
		ID: "newest-inactive", SavingMode: model.SavingModeNone,
		CreatedAt: base.AddDate(0, 2, 0),
	})

	goal, err := store.LatestActiveGoal(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, goal)
	assert.Equal(t, "new-active", goal.ID, "inactive goals never bind")
}

func TestUpdateGoal(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	goal := createTestGoal(t, store, &model.FinancialGoal{ID: "g1", Name: "before"})
	_, err := store.AdjustSmartSaver(ctx, "g1", decimal.NewFromInt(75))
	require.NoError(t, err)

	goal.Name = "after"
	goal.SavingMode = model.SavingModeDaily
	goal.DailyAmount = decimal.NewFromInt(3)
	goal.SmartSaverBalance = decimal.NewFromInt(999) // must be ignored
	require.NoError(t, store.UpdateGoal(ctx, goal))

	fresh, err := store.GetGoal(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "after", fresh.Name)
	assert.Equal(t, model.SavingModeDaily, fresh.SavingMode)
	assert.True(t, fresh.SmartSaverBalance.Equal(decimal.NewFromInt(75)),
		"update must not touch the smart-saver balance")
}

func TestAdjustSmartSaver(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	createTestGoal(t, store, &model.FinancialGoal{ID: "g1"})

	saver, err := store.AdjustSmartSaver(ctx, "g1", decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, saver.Equal(decimal.NewFromInt(40)))

	saver, err = store.AdjustSmartSaver(ctx, "g1", decimal.NewFromInt(-15))
	require.NoError(t, err)
	assert.True(t, saver.Equal(decimal.NewFromInt(25)))

	t.Run("cannot go negative", func(t *testing.T) {
		_, err := store.AdjustSmartSaver(ctx, "g1", decimal.NewFromInt(-100))
		assert.ErrorIs(t, err, common.ErrInsufficientFunds)
	})

	t.Run("unknown goal", func(t *testing.T) {
		_, err := store.AdjustSmartSaver(ctx, "missing", decimal.NewFromInt(1))
		assert.ErrorIs(t, err, common.ErrGoalNotFound)
	})
}

func TestSumSmartSaver(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	sum, err := store.SumSmartSaver(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	createTestGoal(t, store, &model.FinancialGoal{ID: "g1"})
	createTestGoal(t, store, &model.FinancialGoal{ID: "g2"})
	createTestGoal(t, store, &model.FinancialGoal{ID: "g3", OwnerID: "bob"})

	_, err = store.AdjustSmartSaver(ctx, "g1", decimal.RequireFromString("10.50"))
	require.NoError(t, err)
	_, err = store.AdjustSmartSaver(ctx, "g2", decimal.RequireFromString("4.25"))
	require.NoError(t, err)
	_, err = store.AdjustSmartSaver(ctx, "g3", decimal.NewFromInt(100))
	require.NoError(t, err)

	sum, err = store.SumSmartSaver(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("14.75")))
}

func TestDeleteGoal(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	createTestGoal(t, store, &model.FinancialGoal{ID: "g1"})
	require.NoError(t, store.DeleteGoal(ctx, "g1"))

	_, err := store.GetGoal(ctx, "g1")
	assert.ErrorIs(t, err, common.ErrGoalNotFound)

	assert.ErrorIs(t, store.DeleteGoal(ctx, "g1"), common.ErrGoalNotFound)
}

func TestDeleteGoalsByOwner(t *testing.T) {
	store := testutil.SetupTestDB(t)
	ctx := context.Background()

	createTestGoal(t, store, &model.FinancialGoal{ID: "g1"})
	createTestGoal(t, store, &model.FinancialGoal{ID: "g2"})
	createTestGoal(t, store, &model.FinancialGoal{ID: "g3", OwnerID: "bob"})

	require.NoError(t, store.DeleteGoalsByOwner(ctx, "alice"))

	goals, err := store.ListGoals(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, goals)

	_, err = store.GetGoal(ctx, "g3")
	assert.NoError(t, err)
}
