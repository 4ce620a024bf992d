package main

import (
	"github.com/spf13/cobra"

	"github.com/devananda/smartbank/internal/engine"
)

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage your account",
	}
	cmd.AddCommand(accountCreateCmd())
	cmd.AddCommand(accountBalanceCmd())
	cmd.AddCommand(accountEraseCmd())
	return cmd
}

func accountCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create your account (idempotent)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				acct, err := eng.GetOrCreateAccount(cmd.Context(), owner)
				if err != nil {
					return err
				}
				cmd.Printf("Account %s ready for %s\n", acct.AccountNumber, acct.OwnerID)
				return nil
			})
		},
	}
}

func accountBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show your balance and smart-saver reservation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			owner, err := currentOwner(ctx)
			if err != nil {
				return err
			}
			acct, err := eng.Balance(ctx, owner)
			if err != nil {
				return err
			}
			cmd.Printf("Account:  %s\n", acct.AccountNumber)
			cmd.Printf("Balance:  %s\n", acct.Balance.StringFixed(2))
			cmd.Printf("Reserved: %s\n", acct.Reserved.StringFixed(2))
			cmd.Printf("Usable:   %s\n", acct.Usable().StringFixed(2))
			return nil
		},
	}
}

func accountEraseCmd() *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Permanently delete your account, goals, reports, and history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				cmd.Println("Refusing to erase without --yes")
				return nil
			}
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				if err := eng.EraseOwner(cmd.Context(), owner); err != nil {
					return err
				}
				cmd.Printf("Erased all data for %s\n", owner)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the deletion")
	return cmd
}
