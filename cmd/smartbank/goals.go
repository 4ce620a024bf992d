package main

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/devananda/smartbank/internal/common"
	"github.com/devananda/smartbank/internal/engine"
	"github.com/devananda/smartbank/internal/model"
)

func goalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage savings goals",
	}
	cmd.AddCommand(goalSetCmd())
	cmd.AddCommand(goalListCmd())
	cmd.AddCommand(goalUpdateCmd())
	cmd.AddCommand(goalDeleteCmd())
	cmd.AddCommand(goalSaveCmd())
	cmd.AddCommand(goalCashoutCmd())
	return cmd
}

// goalFlags binds the shared goal fields onto a command and returns a
// builder that reads them back into engine parameters.
func goalFlags(cmd *cobra.Command) func() (engine.GoalParams, error) {
	var (
		name     string
		target   string
		deadline string
		mode     string
		daily    string
		weekly   string
		monthly  string
		yearly   string
		seed     string
	)

	cmd.Flags().StringVar(&name, "name", "", "goal name")
	cmd.Flags().StringVar(&target, "target", "0", "target amount")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD)")
	cmd.Flags().StringVar(&mode, "mode", "NONE", "saving mode (NONE, DAILY, WEEKLY, MONTHLY, YEARLY)")
	cmd.Flags().StringVar(&daily, "daily", "0", "daily saving amount")
	cmd.Flags().StringVar(&weekly, "weekly", "0", "weekly saving amount")
	cmd.Flags().StringVar(&monthly, "monthly", "0", "monthly saving amount")
	cmd.Flags().StringVar(&yearly, "yearly", "0", "yearly saving amount")
	cmd.Flags().StringVar(&seed, "seed", "0", "initial smart-saver deposit")

	return func() (engine.GoalParams, error) {
		params := engine.GoalParams{
			Name:       name,
			SavingMode: model.SavingMode(strings.ToUpper(mode)),
		}

		var err error
		for _, field := range []struct {
			dst *decimal.Decimal
			raw string
		}{
			{&params.TargetAmount, target},
			{&params.DailyAmount, daily},
			{&params.WeeklyAmount, weekly},
			{&params.MonthlyAmount, monthly},
			{&params.YearlyAmount, yearly},
			{&params.InitialSeed, seed},
		} {
			if *field.dst, err = parseAmount(field.raw); err != nil {
				return engine.GoalParams{}, err
			}
		}

		if deadline != "" {
			when, err := parseDate(deadline)
			if err != nil {
				return engine.GoalParams{}, err
			}
			params.Deadline = *when
		}
		return params, nil
	}
}

func goalSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create a savings goal",
	}
	buildParams := goalFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		params, err := buildParams()
		if err != nil {
			return err
		}
		if params.Name == "" {
			return common.NewUserError("goal name is required", common.ErrInvalidAmount)
		}
		return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
			goal, err := eng.SetGoal(cmd.Context(), owner, params)
			if err != nil {
				return err
			}
			cmd.Printf("Created goal %q (%s)\n", goal.Name, goal.ID)
			return nil
		})
	}
	return cmd
}

func goalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your goals with expected savings to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				statuses, err := eng.ListGoals(cmd.Context(), owner)
				if err != nil {
					return err
				}
				if len(statuses) == 0 {
					cmd.Println("No goals")
					return nil
				}
				for _, status := range statuses {
					goal := status.Goal
					deadline := "none"
					if !goal.Deadline.IsZero() {
						deadline = goal.Deadline.Format("2006-01-02")
					}
					cmd.Printf("%s  %q  mode=%s  target=%s  saved=%s  expected=%s  deadline=%s\n",
						goal.ID, goal.Name, goal.SavingMode,
						goal.TargetAmount.StringFixed(2),
						goal.SmartSaverBalance.StringFixed(2),
						status.ExpectedSavings.StringFixed(2),
						deadline)
				}
				return nil
			})
		},
	}
}

func goalUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <goal-id>",
		Short: "Edit a goal's name, target, deadline, or schedule",
		Args:  cobra.ExactArgs(1),
	}
	buildParams := goalFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		params, err := buildParams()
		if err != nil {
			return err
		}
		return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
			goal, err := eng.UpdateGoal(cmd.Context(), owner, args[0], params)
			if err != nil {
				return err
			}
			cmd.Printf("Updated goal %q (%s)\n", goal.Name, goal.ID)
			return nil
		})
	}
	return cmd
}

func goalDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a goal, releasing any smart-saver funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				if err := eng.DeleteGoal(cmd.Context(), owner, args[0]); err != nil {
					return err
				}
				cmd.Printf("Deleted goal %s\n", args[0])
				return nil
			})
		},
	}
}

func goalSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save <goal-id> <amount>",
		Short: "Move usable funds into a goal's smart saver",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				goal, _, err := eng.DepositToGoal(cmd.Context(), owner, args[0], amount)
				if err != nil {
					return err
				}
				cmd.Printf("Saved %s into %q, smart saver now %s\n",
					amount.StringFixed(2), goal.Name, goal.SmartSaverBalance.StringFixed(2))
				return nil
			})
		},
	}
}

func goalCashoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cashout <goal-id>",
		Short: "Release a goal's entire smart-saver balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				_, entry, err := eng.WithdrawFromSmartSaver(cmd.Context(), owner, args[0])
				if err != nil {
					return err
				}
				cmd.Printf("Released %s back to usable balance\n", entry.Amount.StringFixed(2))
				return nil
			})
		},
	}
}
