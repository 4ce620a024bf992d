package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/testutil"
)

func TestLockTableAcquire(t *testing.T) {
	lt := newLockTable()
	ctx := context.Background()

	release, err := lt.acquire(ctx, 1, time.Second)
	require.NoError(t, err)

	// A different account is independent.
	releaseOther, err := lt.acquire(ctx, 2, time.Second)
	require.NoError(t, err)
	releaseOther()

	// The held account times out.
	_, err = lt.acquire(ctx, 1, 20*time.Millisecond)
	assert.ErrorIs(t, err, common.ErrBusy)

	release()
	release, err = lt.acquire(ctx, 1, 20*time.Millisecond)
	require.NoError(t, err)
	release()
}

func TestLockTableAcquireRespectsContext(t *testing.T) {
	lt := newLockTable()

	release, err := lt.acquire(context.Background(), 1, time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = lt.acquire(ctx, 1, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLockTableAcquireTwoReleasesOnFailure(t *testing.T) {
	lt := newLockTable()
	ctx := context.Background()

	// Hold the higher ID so acquireTwo gets the first lock and fails on
	// the second.
	releaseHigh, err := lt.acquire(ctx, 2, time.Second)
	require.NoError(t, err)

	_, err = lt.acquireTwo(ctx, 2, 1, 20*time.Millisecond)
	assert.ErrorIs(t, err, common.ErrBusy)

	// The first lock must have been released on the way out.
	releaseLow, err := lt.acquire(ctx, 1, 20*time.Millisecond)
	require.NoError(t, err)
	releaseLow()

	releaseHigh()
}

func TestOperationsSurfaceBusy(t *testing.T) {
	store := testutil.SetupTestDB(t)
	eng := New(store, WithConfig(Config{
		LockWait:              20 * time.Millisecond,
		AccountNumberAttempts: 10,
		AccountNumberPrefix:   "SB",
		GoalPolicy:            GoalPolicyLatestCreated,
	}))
	ctx := context.Background()

	acct, err := eng.GetOrCreateAccount(ctx, "alice")
	require.NoError(t, err)

	release, err := eng.locks.acquire(ctx, acct.ID, time.Second)
	require.NoError(t, err)
	defer release()

	_, _, err = eng.Deposit(ctx, "alice", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, common.ErrBusy)

	_, _, err = eng.Withdraw(ctx, "alice", decimal.NewFromInt(10))
	assert.ErrorIs(t, err, common.ErrBusy)
}
