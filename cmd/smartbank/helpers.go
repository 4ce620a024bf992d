package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/config"
	"github.com/devananda/smartbank/internal/engine"
	"github.com/devananda/smartbank/internal/service"
	"github.com/devananda/smartbank/internal/storage"
)

// staticIdentity resolves the acting owner from flags and config. A real
// deployment would swap in a provider backed by session tokens.
type staticIdentity struct{}

func (staticIdentity) Authenticate(_ context.Context) (string, error) {
	owner := viper.GetString("identity.owner")
	if owner == "" {
		return "", common.NewUserError("no identity configured; pass --owner or set identity.owner", common.ErrUnauthorized)
	}
	return owner, nil
}

func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "~/.local/share/smartbank/smartbank.db"
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func initEngine(ctx context.Context) (*engine.Engine, service.Storage, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(store, engine.WithConfig(config.EngineConfig())), store, nil
}

func currentOwner(ctx context.Context) (string, error) {
	var provider service.IdentityProvider = staticIdentity{}
	return provider.Authenticate(ctx)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, common.NewUserError(fmt.Sprintf("invalid amount %q", raw), common.ErrInvalidAmount)
	}
	return amount, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, common.NewUserError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", raw), err)
	}
	return &t, nil
}

// withEngineRetry runs fn against a freshly initialized engine, retrying
// lock-contention failures with backoff.
func withEngineRetry(ctx context.Context, fn func(*engine.Engine, string) error) error {
	eng, store, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	owner, err := currentOwner(ctx)
	if err != nil {
		return err
	}

	return common.WithRetry(ctx, func() error {
		return fn(eng, owner)
	}, service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	})
}
