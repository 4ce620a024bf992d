package engine

import (
	"context"
	"sync"
	"time"

	"github.com/devananda/smartbank/internal/common"
)

// lockTable provides per-account mutual exclusion with a bounded wait.
// Acquisition that cannot complete within the wait surfaces ErrBusy so a
// caller never hangs behind a stuck operation.
type lockTable struct {
	sems map[int64]chan struct{}
	mu   sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{sems: make(map[int64]chan struct{})}
}

func (lt *lockTable) sem(accountID int64) chan struct{} {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sem, ok := lt.sems[accountID]
	if !ok {
		sem = make(chan struct{}, 1)
		lt.sems[accountID] = sem
	}
	return sem
}

// acquire takes the account's lock, waiting at most wait. The returned
// release function must be called exactly once.
func (lt *lockTable) acquire(ctx context.Context, accountID int64, wait time.Duration) (func(), error) {
	sem := lt.sem(accountID)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		return func() { <-sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, common.ErrBusy
	}
}

// acquireTwo takes both accounts' locks in ascending ID order so two
// opposite-direction transfers cannot deadlock.
func (lt *lockTable) acquireTwo(ctx context.Context, a, b int64, wait time.Duration) (func(), error) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}

	releaseFirst, err := lt.acquire(ctx, first, wait)
	if err != nil {
		return nil, err
	}
	releaseSecond, err := lt.acquire(ctx, second, wait)
	if err != nil {
		releaseFirst()
		return nil, err
	}
	return func() {
		releaseSecond()
		releaseFirst()
	}, nil
}
