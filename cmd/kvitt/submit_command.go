package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"kvitt/internal/currency"
	"kvitt/internal/draft"
	"kvitt/internal/session"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var campusID string
	var departmentID string
	var summary string
	var profileName string
	var bankAccount string
	var statements []string
	var edits []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "submit FILE...",
		Short: "Ingest receipt files and submit them as one expense",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess, err := ctx.newSession()
			if err != nil {
				return err
			}
			defer sess.Close()

			ids, err := sess.AddFiles(runCtx, args)
			if err != nil {
				return err
			}

			// Statements can only be attached once the parent has
			// settled, so let ingestion finish first and settle again
			// after the statement uploads start.
			if err := sess.WaitUntilSettled(runCtx); err != nil {
				return err
			}
			if len(statements) > 0 {
				if err := attachStatements(runCtx, sess, ids, statements); err != nil {
					return err
				}
				if err := sess.WaitUntilSettled(runCtx); err != nil {
					return err
				}
			}

			cfg, _ := ctx.ensureConfig()
			if err := applyEdits(sess, ids, cfg.Currency.Settlement, edits); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			format := currency.NewFormatter(cfg.Currency.Settlement, cfg.Currency.Locale)
			fmt.Fprintln(out, renderReceiptTable(sess.Store(), ids, format))

			if failed := failedReceipts(sess.Store()); len(failed) > 0 {
				colorize := shouldColorize(out)
				for _, receipt := range failed {
					line := fmt.Sprintf("failed: %s: %s", receipt.File.FileName, receipt.ErrorMessage)
					if colorize {
						line = ansiRed + line + ansiReset
					}
					fmt.Fprintln(out, line)
				}
				return fmt.Errorf("%d receipt(s) failed processing; remove or re-add them before submitting", len(failed))
			}

			if missing := sess.Store().MissingStatements(); len(missing) > 0 {
				fmt.Fprintf(out, "note: %d foreign-currency receipt(s) have no bank statement attached\n", len(missing))
			}

			if campusID != "" || departmentID != "" {
				if campusID == "" || departmentID == "" {
					return fmt.Errorf("--campus and --department must be provided together")
				}
				if err := sess.SetAssignment(runCtx, campusID, departmentID); err != nil {
					return err
				}
			}
			sess.SetProfile(profileName, bankAccount)
			if bankAccount == "" && cfg.Ledger.BankAccount != "" {
				sess.SetProfile(profileName, cfg.Ledger.BankAccount)
			}

			if summary == "" {
				summary = sess.SuggestSummary()
			}
			sess.SetSummary(summary)

			total := format.Format(sess.Store().TotalAmount())
			if dryRun {
				fmt.Fprintf(out, "Total: %s\n", total)
				fmt.Fprintf(out, "Ready to submit: %s\n", yesNo(sess.Store().IsReadyToSubmit()))
				return nil
			}

			expenseID, err := sess.Submit(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Submitted expense %s (total %s)\n", expenseID, total)
			return nil
		},
	}

	cmd.Flags().StringVar(&campusID, "campus", "", "Campus ID for the expense")
	cmd.Flags().StringVar(&departmentID, "department", "", "Department ID for the expense")
	cmd.Flags().StringVar(&summary, "summary", "", "Expense description (derived from receipts when omitted)")
	cmd.Flags().StringVar(&profileName, "name", "", "Submitter name")
	cmd.Flags().StringVar(&bankAccount, "bank-account", "", "Reimbursement bank account (falls back to the configured account)")
	cmd.Flags().StringArrayVar(&statements, "statement", nil, "Attach a bank statement: N=FILE links FILE to the Nth receipt")
	cmd.Flags().StringArrayVar(&edits, "set", nil, "Correct an extracted field: N.FIELD=VALUE (e.g. 2.vendor=IKEA)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Process and show the draft without submitting")
	return cmd
}

func attachStatements(ctx context.Context, sess *session.Session, ids []string, specs []string) error {
	for _, spec := range specs {
		index, rest, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("statement %q: expected N=FILE", spec)
		}
		id, err := receiptAt(ids, index)
		if err != nil {
			return fmt.Errorf("statement %q: %w", spec, err)
		}
		if _, err := sess.AttachStatement(ctx, id, rest); err != nil {
			return fmt.Errorf("statement %q: %w", spec, err)
		}
	}
	return nil
}

func applyEdits(sess *session.Session, ids []string, settlement string, specs []string) error {
	for _, spec := range specs {
		target, value, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("set %q: expected N.FIELD=VALUE", spec)
		}
		index, fieldName, ok := strings.Cut(target, ".")
		if !ok {
			return fmt.Errorf("set %q: expected N.FIELD=VALUE", spec)
		}
		id, err := receiptAt(ids, index)
		if err != nil {
			return fmt.Errorf("set %q: %w", spec, err)
		}
		field, ok := draft.ParseField(fieldName)
		if !ok {
			return fmt.Errorf("set %q: unknown field %q", spec, fieldName)
		}

		var edit draft.FieldEdit
		switch field {
		case draft.FieldAmount, draft.FieldOriginalAmount, draft.FieldExchangeRate:
			number, err := decimal.NewFromString(strings.TrimSpace(value))
			if err != nil {
				return fmt.Errorf("set %q: %q is not a number", spec, value)
			}
			edit = draft.NumberEdit(id, field, number)
		default:
			edit = draft.TextEdit(id, field, value)
		}
		if err := sess.Store().Apply(settlement, edit); err != nil {
			return fmt.Errorf("set %q: %w", spec, err)
		}
	}
	return nil
}

func receiptAt(ids []string, index string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(index))
	if err != nil || n < 1 || n > len(ids) {
		return "", fmt.Errorf("receipt index %q out of range 1..%d", index, len(ids))
	}
	return ids[n-1], nil
}

func failedReceipts(store *draft.Store) []draft.Receipt {
	var failed []draft.Receipt
	for _, receipt := range store.Receipts() {
		if receipt.Status == draft.StatusError {
			failed = append(failed, receipt)
		}
	}
	return failed
}

func renderReceiptTable(store *draft.Store, ids []string, format *currency.Formatter) string {
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i + 1
	}

	headers := []string{"#", "File", "Status", "Vendor", "Date", "Amount", "Notes"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}

	var rows [][]string
	for _, receipt := range store.Receipts() {
		index := ""
		if n, ok := position[receipt.ID]; ok {
			index = strconv.Itoa(n)
		}
		rows = append(rows, []string{
			index,
			receipt.File.FileName,
			string(receipt.Status),
			receipt.Vendor,
			receipt.Date,
			format.Format(receipt.Amount),
			receiptNotes(store, receipt),
		})
	}
	return renderTable(headers, rows, aligns)
}

func receiptNotes(store *draft.Store, receipt draft.Receipt) string {
	var notes []string
	if receipt.IsStatement() {
		notes = append(notes, "statement")
	}
	if receipt.Estimated {
		notes = append(notes, fmt.Sprintf("estimated from %s %s", receipt.OriginalAmount.String(), receipt.CurrencyCode))
	}
	if receipt.StatementRequired && !store.HasStatement(receipt.ID) {
		notes = append(notes, "statement missing")
	}
	if receipt.StatementRequired && store.HasStatement(receipt.ID) {
		notes = append(notes, "verified")
	}
	if receipt.ErrorMessage != "" {
		notes = append(notes, receipt.ErrorMessage)
	}
	return strings.Join(notes, "; ")
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
