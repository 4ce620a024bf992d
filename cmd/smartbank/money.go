package main

import (
	"github.com/spf13/cobra"

	"github.com/devananda/smartbank/internal/engine"
)

func depositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <amount>",
		Short: "Deposit funds into your account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				acct, entry, err := eng.Deposit(cmd.Context(), owner, amount)
				if err != nil {
					return err
				}
				cmd.Printf("Deposited %s (entry %s), balance %s\n",
					entry.Amount.StringFixed(2), entry.ID, acct.Balance.StringFixed(2))
				return nil
			})
		},
	}
}

func withdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw funds from your account",
		Long: `Withdraw funds from your account.

Withdrawals that would leave the usable balance below an active goal's
expected cumulative savings, or dip into smart-saver reservations, are
refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				acct, entry, err := eng.Withdraw(cmd.Context(), owner, amount)
				if err != nil {
					return err
				}
				cmd.Printf("Withdrew %s (entry %s), balance %s\n",
					entry.Amount.StringFixed(2), entry.ID, acct.Balance.StringFixed(2))
				return nil
			})
		},
	}
}

func transferCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <account-number> <amount>",
		Short: "Transfer funds to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				sent, _, err := eng.Transfer(cmd.Context(), owner, args[0], amount)
				if err != nil {
					return err
				}
				cmd.Printf("Transferred %s to %s (entry %s)\n",
					sent.Amount.StringFixed(2), sent.CounterpartyAccount, sent.ID)
				return nil
			})
		},
	}
}
