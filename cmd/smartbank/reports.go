package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/devananda/smartbank/internal/engine"
	"github.com/devananda/smartbank/internal/model"
	"github.com/devananda/smartbank/internal/service"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "File and manage fraud reports",
	}
	cmd.AddCommand(reportFileCmd())
	cmd.AddCommand(reportToggleCmd())
	cmd.AddCommand(reportResolveCmd())
	cmd.AddCommand(reportDeleteCmd())
	cmd.AddCommand(reportListCmd())
	return cmd
}

func reportFileCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "file <transaction-id>",
		Short: "Report a transaction as fraudulent (run again to retract)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				report, err := eng.ReportTransaction(cmd.Context(), owner, args[0], reason)
				if err != nil {
					return err
				}
				if report == nil {
					cmd.Printf("Retracted your open report on %s\n", args[0])
					return nil
				}
				cmd.Printf("Filed report %s on transaction %s\n", report.ID, args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why this transaction looks fraudulent")
	return cmd
}

func reportToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <transaction-id>",
		Short: "Flip the reported flag on one of your own transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				reported, err := eng.ToggleReported(cmd.Context(), owner, args[0])
				if err != nil {
					return err
				}
				if reported {
					cmd.Printf("Transaction %s marked reported\n", args[0])
				} else {
					cmd.Printf("Transaction %s no longer marked reported\n", args[0])
				}
				return nil
			})
		},
	}
}

func reportResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <report-id>",
		Short: "Resolve an open report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, _ string) error {
				report, err := eng.ResolveReport(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cmd.Printf("Report %s resolved\n", report.ID)
				return nil
			})
		},
	}
}

func reportDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <report-id>",
		Short: "Delete a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, _ string) error {
				if err := eng.DeleteReport(cmd.Context(), args[0]); err != nil {
					return err
				}
				cmd.Printf("Deleted report %s\n", args[0])
				return nil
			})
		},
	}
}

func reportListCmd() *cobra.Command {
	var (
		status    string
		startDate string
		endDate   string
		search    string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter service.ReportFilter
			if status != "" {
				s := model.ReportStatus(strings.ToUpper(status))
				filter.Status = &s
			}
			filter.Search = search

			var err error
			if filter.StartDate, err = parseDate(startDate); err != nil {
				return err
			}
			if filter.EndDate, err = parseDate(endDate); err != nil {
				return err
			}

			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, _ string) error {
				reports, err := eng.ListReports(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if len(reports) == 0 {
					cmd.Println("No reports found")
					return nil
				}
				for _, report := range reports {
					cmd.Printf("%s  %s  tx=%s  by=%s  against=%s  %q\n",
						report.ID, report.Status, report.TransactionID,
						report.ReporterID, report.ReportedOwnerID, report.Reason)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (OPEN, RESOLVED)")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&search, "search", "", "substring match on the report reason")
	return cmd
}
