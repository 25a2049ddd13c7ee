package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kvitt/internal/currency"
	"kvitt/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously submitted expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No submitted expenses recorded yet")
				return nil
			}

			format := currency.NewFormatter(cfg.Currency.Settlement, cfg.Currency.Locale)
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.SubmittedAt.Local().Format("2006-01-02 15:04"),
					entry.ExpenseID,
					entry.Campus,
					entry.Department,
					entry.Summary,
					strconv.Itoa(entry.ReceiptCount),
					format.Format(entry.Total),
				})
			}
			headers := []string{"Submitted", "Expense", "Campus", "Department", "Summary", "Receipts", "Total"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}
	return cmd
}
