package submit

import (
	"context"
	"log/slog"

	"kvitt/internal/currency"
	"kvitt/internal/draft"
	"kvitt/internal/logging"
	"kvitt/internal/notifications"
	"kvitt/internal/services"
	"kvitt/internal/services/ledger"
)

// Backend is the slice of the expense backend the orchestrator needs.
// *ledger.Client satisfies it.
type Backend interface {
	CreateAttachment(ctx context.Context, att ledger.Attachment) (string, error)
	DeleteAttachment(ctx context.Context, id string) error
	CreateExpense(ctx context.Context, req ledger.ExpenseRequest) (string, error)
}

// Orchestrator converts a ready draft into backend records: one attachment
// per receipt, then the expense itself. Attachments are created
// sequentially so backend ordering is deterministic and partial failure
// stays easy to reason about.
type Orchestrator struct {
	store    *draft.Store
	backend  Backend
	notifier notifications.Service
	logger   *slog.Logger
	format   *currency.Formatter
}

// New constructs an orchestrator over the given store and backend.
func New(store *draft.Store, backend Backend, notifier notifications.Service, logger *slog.Logger, format *currency.Formatter) *Orchestrator {
	return &Orchestrator{
		store:    store,
		backend:  backend,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "submit"),
		format:   format,
	}
}

// Submit runs one submission attempt. The readiness gate is re-checked
// inside the store's phase transition, not just trusted from the caller; a
// refused submission leaves the draft untouched and creates no backend
// record. On failure the phase reverts to draft and the receipt set is
// preserved so a retry does not re-upload; attachments already created are
// best-effort deleted so the backend is not left with orphans.
func (o *Orchestrator) Submit(ctx context.Context) (string, error) {
	if err := o.store.BeginSubmission(); err != nil {
		return "", err
	}

	receipts := o.store.Receipts()
	attachmentIDs := make([]string, 0, len(receipts))
	for _, receipt := range receipts {
		id, err := o.backend.CreateAttachment(ctx, ledger.Attachment{
			Date:        receipt.Date,
			FileID:      receipt.File.RemoteFileID,
			Amount:      receipt.Amount,
			Description: receipt.Description,
			MimeType:    receipt.File.MimeType,
		})
		if err != nil {
			o.fail(ctx, err, attachmentIDs)
			return "", err
		}
		attachmentIDs = append(attachmentIDs, id)
		o.logger.Debug("attachment created",
			logging.String(logging.FieldReceiptID, receipt.ID),
			logging.String("attachment_id", id),
		)
	}

	assignment := o.store.Assignment()
	total := o.store.TotalAmount()
	expenseID, err := o.backend.CreateExpense(ctx, ledger.ExpenseRequest{
		CampusID:      assignment.CampusID,
		DepartmentID:  assignment.DepartmentID,
		BankAccount:   o.store.Profile().BankAccount,
		Description:   o.store.Summary(),
		AttachmentIDs: attachmentIDs,
		Total:         total,
	})
	if err != nil {
		o.fail(ctx, err, attachmentIDs)
		return "", err
	}

	o.store.CompleteSubmission(expenseID)
	o.logger.Info("expense submitted",
		logging.String(logging.FieldEventType, "submission_complete"),
		logging.String("expense_id", expenseID),
		logging.Int("receipts", len(receipts)),
	)
	if err := o.notifier.NotifySubmissionComplete(ctx, expenseID, o.format.Format(total)); err != nil {
		o.logger.Debug("completion notification failed", logging.Error(err))
	}
	return expenseID, nil
}

// fail reverts the phase, records the failure, and unwinds attachments
// created before the failing step.
func (o *Orchestrator) fail(ctx context.Context, cause error, attachmentIDs []string) {
	reason := services.Reason(cause)
	o.logger.Error("submission failed",
		logging.String(logging.FieldEventType, "submission_failed"),
		logging.Error(cause),
	)

	for _, id := range attachmentIDs {
		if err := o.backend.DeleteAttachment(ctx, id); err != nil {
			o.logger.Warn("attachment compensation failed; orphaned record may remain",
				logging.String("attachment_id", id),
				logging.Error(err),
			)
		}
	}

	o.store.FailSubmission(reason)
	if err := o.notifier.NotifySubmissionFailed(ctx, reason); err != nil {
		o.logger.Debug("failure notification failed", logging.Error(err))
	}
}
