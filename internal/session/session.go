package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"kvitt/internal/config"
	"kvitt/internal/currency"
	"kvitt/internal/draft"
	"kvitt/internal/history"
	"kvitt/internal/logging"
	"kvitt/internal/notifications"
	"kvitt/internal/pipeline"
	"kvitt/internal/services"
	"kvitt/internal/services/ledger"
	"kvitt/internal/services/ocr"
	"kvitt/internal/services/vault"
	"kvitt/internal/submit"
)

// Session wires the draft store, the ingestion runner, and the submission
// orchestrator for one invocation. A session holds exactly one draft; the
// draft lives in memory and is gone when the session ends.
type Session struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *draft.Store
	runner       *pipeline.Runner
	directory    *ledger.Client
	orchestrator *submit.Orchestrator
	log          *history.Store
	closers      []io.Closer
}

// New builds a fully wired session from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	store := draft.NewStore()

	uploader := vault.NewService(cfg)
	scanner, err := ocr.NewScanner(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize scanner: %w", err)
	}

	sess := &Session{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
	if closer, ok := scanner.(io.Closer); ok {
		sess.closers = append(sess.closers, closer)
	}

	analyzingDelay := time.Duration(cfg.Pipeline.AnalyzingDelayMS) * time.Millisecond
	pipe := pipeline.New(store, uploader, scanner, logger, cfg.Currency.Settlement, analyzingDelay)
	sess.runner = pipeline.NewRunner(pipe, store)

	sess.directory = ledger.NewClient(cfg)
	notifier := notifications.NewService(cfg)
	format := currency.NewFormatter(cfg.Currency.Settlement, cfg.Currency.Locale)
	sess.orchestrator = submit.New(store, sess.directory, notifier, logger, format)

	log, err := history.Open(cfg)
	if err != nil {
		// History is a convenience record; a locked or broken database
		// must not block a submission.
		logging.NewComponentLogger(logger, "session").Warn("history unavailable", logging.Error(err))
	} else {
		sess.log = log
		sess.closers = append(sess.closers, log)
	}

	return sess, nil
}

// Store exposes the draft store for read access and edits.
func (s *Session) Store() *draft.Store {
	return s.store
}

// AddFiles ingests local receipt files in the given order and returns the
// receipt IDs assigned to them.
func (s *Session) AddFiles(ctx context.Context, paths []string) ([]string, error) {
	files := make([]pipeline.LocalFile, 0, len(paths))
	for _, path := range paths {
		file, err := localFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return s.runner.Ingest(ctx, files...), nil
}

// AttachStatement links a bank statement file to an existing receipt.
func (s *Session) AttachStatement(ctx context.Context, parentID, path string) (string, error) {
	file, err := localFile(path)
	if err != nil {
		return "", err
	}
	return s.runner.AttachStatement(ctx, parentID, file)
}

// Remove cancels any in-flight processing for the receipt and deletes it,
// along with any linked bank statement.
func (s *Session) Remove(id string) bool {
	return s.runner.Remove(id)
}

// WaitUntilSettled blocks until every receipt in the draft has reached a
// terminal processing state (ready or error) or the context is cancelled.
func (s *Session) WaitUntilSettled(ctx context.Context) error {
	changes := s.store.Subscribe()
	for {
		if settled(s.store) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		}
	}
}

func settled(store *draft.Store) bool {
	for _, receipt := range store.Receipts() {
		if receipt.IsInFlight() {
			return false
		}
	}
	return true
}

// SuggestSummary proposes an expense description from the ready receipts.
// The suggestion is advisory; the user keeps the final word.
func (s *Session) SuggestSummary() string {
	seen := make(map[string]struct{})
	var vendors []string
	for _, receipt := range s.store.Receipts() {
		if receipt.Status != draft.StatusReady || receipt.IsStatement() {
			continue
		}
		vendor := strings.TrimSpace(receipt.Vendor)
		if vendor == "" {
			continue
		}
		if _, ok := seen[vendor]; ok {
			continue
		}
		seen[vendor] = struct{}{}
		vendors = append(vendors, vendor)
	}
	if len(vendors) == 0 {
		return ""
	}
	sort.Strings(vendors)
	return "Receipts from " + strings.Join(vendors, ", ")
}

// SetAssignment resolves the campus and department names and records the
// assignment on the draft.
func (s *Session) SetAssignment(ctx context.Context, campusID, departmentID string) error {
	campusName, departmentName, err := s.directory.ResolveAssignment(ctx, campusID, departmentID)
	if err != nil {
		return err
	}
	s.store.SetAssignment(draft.Assignment{
		CampusID:       campusID,
		CampusName:     campusName,
		DepartmentID:   departmentID,
		DepartmentName: departmentName,
	})
	return nil
}

// SetProfile records the submitter profile on the draft.
func (s *Session) SetProfile(name, bankAccount string) {
	s.store.SetProfile(draft.Profile{Name: name, BankAccount: bankAccount})
}

// SetSummary records the expense description on the draft.
func (s *Session) SetSummary(summary string) {
	s.store.SetSummary(summary)
}

// Submit runs the submission and, on success, records the expense in the
// local history log.
func (s *Session) Submit(ctx context.Context) (string, error) {
	expenseID, err := s.orchestrator.Submit(ctx)
	if err != nil {
		return "", err
	}

	if s.log != nil {
		assignment := s.store.Assignment()
		receipts := 0
		for _, receipt := range s.store.Receipts() {
			if !receipt.IsStatement() {
				receipts++
			}
		}
		if _, logErr := s.log.Add(ctx, history.Entry{
			ExpenseID:    expenseID,
			Campus:       assignment.CampusName,
			Department:   assignment.DepartmentName,
			Summary:      s.store.Summary(),
			Total:        s.store.TotalAmount(),
			ReceiptCount: receipts,
		}); logErr != nil {
			logging.NewComponentLogger(s.logger, "session").Warn("record submission", logging.Error(logErr))
		}
	}

	return expenseID, nil
}

// Close waits for in-flight processing to stop and releases held resources.
func (s *Session) Close() error {
	s.runner.Wait()
	var firstErr error
	for _, closer := range s.closers {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func localFile(path string) (pipeline.LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return pipeline.LocalFile{}, services.Wrap(services.ErrValidation, "session", "add_files", fmt.Sprintf("cannot read %s", path), err)
	}
	if info.IsDir() {
		return pipeline.LocalFile{}, services.Wrap(services.ErrValidation, "session", "add_files", fmt.Sprintf("%s is a directory", path), nil)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return pipeline.LocalFile{
		Path:     path,
		Name:     filepath.Base(path),
		MimeType: mimeType,
	}, nil
}
