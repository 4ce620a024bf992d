package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/devananda/smartbank/internal/engine"
	"github.com/devananda/smartbank/internal/model"
	"github.com/devananda/smartbank/internal/service"
)

func historyCmd() *cobra.Command {
	var (
		kinds        []string
		startDate    string
		endDate      string
		counterparty string
		limit        int
		offset       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your transaction history, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := service.EntryFilter{
				Counterparty: counterparty,
				Limit:        limit,
				Offset:       offset,
			}
			for _, k := range kinds {
				kind := model.EntryKind(strings.ToUpper(k))
				if !kind.Valid() {
					cmd.Printf("Unknown kind %q, skipping\n", k)
					continue
				}
				filter.Kinds = append(filter.Kinds, kind)
			}

			var err error
			if filter.StartDate, err = parseDate(startDate); err != nil {
				return err
			}
			if filter.EndDate, err = parseDate(endDate); err != nil {
				return err
			}

			return withEngineRetry(cmd.Context(), func(eng *engine.Engine, owner string) error {
				count := 0
				for entry, err := range eng.QueryTransactions(cmd.Context(), owner, filter) {
					if err != nil {
						return err
					}
					line := entry.Timestamp.Format("2006-01-02 15:04:05") + "  " +
						string(entry.Kind) + "  " + entry.Amount.StringFixed(2)
					if entry.CounterpartyAccount != "" {
						line += "  with " + entry.CounterpartyAccount
					}
					if entry.IsFraud {
						line += "  [FRAUD]"
					}
					if entry.Reported {
						line += "  [REPORTED]"
					}
					cmd.Printf("%s  %s\n", entry.ID, line)
					count++
				}
				if count == 0 {
					cmd.Println("No transactions found")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "filter by entry kind (repeatable)")
	cmd.Flags().StringVar(&startDate, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "filter by counterparty account number")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}
