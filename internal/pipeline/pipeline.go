package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"kvitt/internal/currency"
	"kvitt/internal/draft"
	"kvitt/internal/logging"
	"kvitt/internal/services"
	"kvitt/internal/services/ocr"
	"kvitt/internal/services/vault"
)

// fallbackConfidence is assigned when extraction fails and the receipt
// degrades to a placeholder; only upload failure is terminal.
const fallbackConfidence = 0.3

// progressUploaded is the progress percentage recorded once the upload
// round trip completes; the remainder is consumed by extraction.
const progressUploaded = 60

// LocalFile identifies a dropped document on the local filesystem.
type LocalFile struct {
	Path     string
	Name     string
	MimeType string
}

// Pipeline drives one uploaded file through ingestion: upload, extraction,
// currency resolution. It is stateless; every intermediate state is written
// into the draft store through id-scoped updates.
type Pipeline struct {
	store      *draft.Store
	uploader   vault.Service
	scanner    ocr.Scanner
	logger     *slog.Logger
	settlement string

	// analyzingDelay keeps the analyzing state observable before a receipt
	// becomes ready; the consuming surface treats it as a distinct signal.
	analyzingDelay time.Duration
}

// New constructs a pipeline writing into the given store.
func New(store *draft.Store, uploader vault.Service, scanner ocr.Scanner, logger *slog.Logger, settlement string, analyzingDelay time.Duration) *Pipeline {
	return &Pipeline{
		store:          store,
		uploader:       uploader,
		scanner:        scanner,
		logger:         logging.NewComponentLogger(logger, "pipeline"),
		settlement:     settlement,
		analyzingDelay: analyzingDelay,
	}
}

// NewReceipt builds the initial uploading-state receipt for a file. The
// caller adds it to the store before the ingestion task starts so list
// order follows drop order, not completion order.
func NewReceipt(id string, file LocalFile) draft.Receipt {
	return draft.Receipt{
		ID: id,
		File: draft.FileIdentity{
			LocalPath: file.Path,
			FileName:  file.Name,
			MimeType:  file.MimeType,
		},
		Status: draft.StatusUploading,
	}
}

// Run ingests one primary receipt. Failure at the upload step is terminal
// for the receipt; extraction failure degrades to a placeholder. A
// cancelled context stops the task before its next suspension point.
func (p *Pipeline) Run(ctx context.Context, receiptID string, file LocalFile) error {
	ctx = services.WithReceiptID(ctx, receiptID)
	logger := logging.WithContext(ctx, p.logger)

	fileID, err := p.upload(ctx, receiptID, file, logger)
	if err != nil {
		return err
	}

	result, extractErr := p.extract(ctx, receiptID, fileID, file, logger)

	if err := p.analyze(ctx, receiptID); err != nil {
		return err
	}

	p.finish(receiptID, file, result, extractErr, logger)
	return nil
}

// RunStatement ingests a bank-statement child for the given parent
// receipt. Statements skip extraction: they are evidentiary, carry a zero
// amount, and become ready as soon as the upload completes.
func (p *Pipeline) RunStatement(ctx context.Context, receiptID, parentID string, file LocalFile) error {
	ctx = services.WithReceiptID(ctx, receiptID)
	logger := logging.WithContext(ctx, p.logger)

	if _, err := p.upload(ctx, receiptID, file, logger); err != nil {
		return err
	}
	p.store.UpdateReceipt(receiptID, func(r *draft.Receipt) {
		r.Status = draft.StatusReady
		r.SetProgress(100)
		r.Description = fmt.Sprintf("Bank statement from %s", file.Name)
	})
	logger.Info("statement attached",
		logging.String(logging.FieldEventType, "statement_ready"),
		logging.String("parent_id", parentID),
	)
	return nil
}

func (p *Pipeline) upload(ctx context.Context, receiptID string, file LocalFile, logger *slog.Logger) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content, err := os.Open(file.Path)
	if err != nil {
		p.fail(receiptID, fmt.Sprintf("Upload failed: %s", err))
		return "", err
	}
	defer content.Close()

	fileID, err := p.uploader.Upload(ctx, file.Name, file.MimeType, content)
	if err != nil {
		p.fail(receiptID, fmt.Sprintf("Upload failed: %s", services.Reason(err)))
		logger.Error("upload failed",
			logging.String(logging.FieldEventType, "upload_failed"),
			logging.Error(err),
		)
		return "", err
	}

	p.store.UpdateReceipt(receiptID, func(r *draft.Receipt) {
		r.File.RemoteFileID = fileID
		r.SetProgress(progressUploaded)
		r.Status = draft.StatusProcessing
	})
	logger.Debug("upload complete", logging.String("file_id", fileID))
	return fileID, nil
}

func (p *Pipeline) extract(ctx context.Context, receiptID, fileID string, file LocalFile, logger *slog.Logger) (*ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := p.scanner.Extract(ctx, ocr.FileRef{
		FileID:    fileID,
		FileURL:   p.uploader.FileURL(fileID),
		LocalPath: file.Path,
		FileName:  file.Name,
		MimeType:  file.MimeType,
	})
	if err != nil {
		logger.Warn("extraction failed; degrading to placeholder",
			logging.String(logging.FieldEventType, "extraction_failed"),
			logging.Error(err),
		)
		return nil, err
	}
	return result, nil
}

// analyze parks the receipt in the analyzing state for the configured
// interval so the state is observable downstream.
func (p *Pipeline) analyze(ctx context.Context, receiptID string) error {
	p.store.UpdateReceipt(receiptID, func(r *draft.Receipt) {
		r.Status = draft.StatusAnalyzing
		r.SetProgress(80)
	})
	if p.analyzingDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.analyzingDelay):
		return nil
	}
}

func (p *Pipeline) finish(receiptID string, file LocalFile, result *ocr.Result, extractErr error, logger *slog.Logger) {
	if extractErr != nil || result == nil {
		p.store.UpdateReceipt(receiptID, func(r *draft.Receipt) {
			r.Status = draft.StatusReady
			r.SetProgress(100)
			r.Description = fmt.Sprintf("Receipt from %s", file.Name)
			r.Confidence = fallbackConfidence
		})
		return
	}

	resolution := currency.Resolve(p.settlement, currency.Extraction{
		Amount:              result.Amount,
		Currency:            result.Currency,
		ExchangeRate:        result.ExchangeRate,
		SettlementAmount:    result.SettlementAmount,
		HasSettlementAmount: result.HasSettlement,
	})

	p.store.UpdateReceipt(receiptID, func(r *draft.Receipt) {
		r.Status = draft.StatusReady
		r.SetProgress(100)
		r.Description = result.Description
		r.Vendor = result.Vendor
		r.Date = result.Date
		r.Confidence = result.Confidence
		r.CurrencyCode = result.Currency
		r.ExchangeRate = result.ExchangeRate
		r.Amount = resolution.Amount
		r.OriginalAmount = resolution.OriginalAmount
		r.Estimated = resolution.Estimated
		r.StatementRequired = resolution.StatementRequired
	})
	logger.Info("receipt ready",
		logging.String(logging.FieldEventType, "receipt_ready"),
		logging.String("vendor", result.Vendor),
		logging.Float64("confidence", result.Confidence),
	)
}

func (p *Pipeline) fail(receiptID, message string) {
	p.store.UpdateReceipt(receiptID, func(r *draft.Receipt) {
		r.SetError(message)
	})
}
