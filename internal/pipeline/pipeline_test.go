package pipeline_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kvitt/internal/draft"
	"kvitt/internal/logging"
	"kvitt/internal/pipeline"
	"kvitt/internal/services/ocr"
	"kvitt/internal/testsupport"
)

type fakeUploader struct {
	mu      sync.Mutex
	failFor map[string]error
	blockOn map[string]struct{}
	uploads []string
}

func (f *fakeUploader) Upload(ctx context.Context, fileName, mimeType string, content io.Reader) (string, error) {
	f.mu.Lock()
	_, block := f.blockOn[fileName]
	err := f.failFor[fileName]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.uploads = append(f.uploads, fileName)
	f.mu.Unlock()
	return "file-" + fileName, nil
}

func (f *fakeUploader) FileURL(fileID string) string {
	return "https://vault.test/files/" + fileID
}

type fakeScanner struct {
	results map[string]*ocr.Result
	err     error
}

func (f *fakeScanner) Extract(ctx context.Context, ref ocr.FileRef) (*ocr.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if result, ok := f.results[ref.FileName]; ok {
		return result, nil
	}
	return &ocr.Result{Description: "Receipt", Vendor: "Shop", Date: "2026-08-30", Amount: decimal.NewFromInt(100), Currency: "NOK", Confidence: 0.9}, nil
}

func newRunner(t *testing.T, uploader *fakeUploader, scanner ocr.Scanner, delay time.Duration) (*pipeline.Runner, *draft.Store) {
	t.Helper()
	store := draft.NewStore()
	pipe := pipeline.New(store, uploader, scanner, logging.NewNop(), "NOK", delay)
	return pipeline.NewRunner(pipe, store), store
}

func localFiles(t *testing.T, names ...string) []pipeline.LocalFile {
	t.Helper()
	dir := t.TempDir()
	files := make([]pipeline.LocalFile, 0, len(names))
	for _, name := range names {
		path := testsupport.WriteReceiptFile(t, dir, name)
		files = append(files, pipeline.LocalFile{Path: path, Name: name, MimeType: "application/pdf"})
	}
	return files
}

func TestIngestIsolatesUploadFailure(t *testing.T) {
	uploader := &fakeUploader{failFor: map[string]error{"b.pdf": errors.New("vault unavailable")}}
	runner, store := newRunner(t, uploader, &fakeScanner{}, 0)

	files := localFiles(t, "a.pdf", "b.pdf", "c.pdf")
	ids := runner.Ingest(context.Background(), files...)
	runner.Wait()

	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}

	receipts := store.Receipts()
	if receipts[0].ID != ids[0] || receipts[1].ID != ids[1] || receipts[2].ID != ids[2] {
		t.Fatal("list order must follow drop order, not completion order")
	}

	if receipts[0].Status != draft.StatusReady || receipts[2].Status != draft.StatusReady {
		t.Fatalf("expected siblings ready, got %s and %s", receipts[0].Status, receipts[2].Status)
	}
	failed := receipts[1]
	if failed.Status != draft.StatusError {
		t.Fatalf("expected failed receipt, got %s", failed.Status)
	}
	if !strings.HasPrefix(failed.ErrorMessage, "Upload failed:") {
		t.Fatalf("error message = %q", failed.ErrorMessage)
	}
}

func TestExtractionFailureDegradesToPlaceholder(t *testing.T) {
	runner, store := newRunner(t, &fakeUploader{}, &fakeScanner{err: errors.New("model overloaded")}, 0)

	files := localFiles(t, "lunch.pdf")
	ids := runner.Ingest(context.Background(), files...)
	runner.Wait()

	receipt, ok := store.Receipt(ids[0])
	if !ok {
		t.Fatal("receipt missing")
	}
	if receipt.Status != draft.StatusReady {
		t.Fatalf("status = %s, want ready", receipt.Status)
	}
	if receipt.Description != "Receipt from lunch.pdf" {
		t.Fatalf("description = %q", receipt.Description)
	}
	if receipt.Confidence != 0.3 {
		t.Fatalf("confidence = %v, want the degraded marker", receipt.Confidence)
	}
	if receipt.File.RemoteFileID == "" {
		t.Fatal("upload succeeded; the remote file id must be retained")
	}
}

func TestForeignReceiptResolvedThroughRate(t *testing.T) {
	scanner := &fakeScanner{results: map[string]*ocr.Result{
		"hotel.pdf": {
			Description:  "Hotel night",
			Vendor:       "Hotel",
			Date:         "2026-08-29",
			Amount:       decimal.NewFromInt(100),
			Currency:     "USD",
			ExchangeRate: decimal.RequireFromString("1.2"),
			Confidence:   0.85,
		},
	}}
	runner, store := newRunner(t, &fakeUploader{}, scanner, 0)

	ids := runner.Ingest(context.Background(), localFiles(t, "hotel.pdf")...)
	runner.Wait()

	receipt, _ := store.Receipt(ids[0])
	if !receipt.Amount.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("amount = %s, want 120", receipt.Amount)
	}
	if !receipt.Estimated || !receipt.StatementRequired {
		t.Fatalf("foreign receipt flags: estimated=%v statementRequired=%v", receipt.Estimated, receipt.StatementRequired)
	}
	if !receipt.OriginalAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("original = %s, want 100", receipt.OriginalAmount)
	}
}

func TestRemoveCancelsInFlightTask(t *testing.T) {
	uploader := &fakeUploader{blockOn: map[string]struct{}{"slow.pdf": {}}}
	runner, store := newRunner(t, uploader, &fakeScanner{}, 0)

	ids := runner.Ingest(context.Background(), localFiles(t, "slow.pdf")...)

	if !runner.Remove(ids[0]) {
		t.Fatal("expected removal to succeed")
	}
	runner.Wait()

	if _, ok := store.Receipt(ids[0]); ok {
		t.Fatal("removed receipt must not reappear after its task settles")
	}
	if len(store.Receipts()) != 0 {
		t.Fatalf("store not empty: %d receipts", len(store.Receipts()))
	}
}

func TestAttachStatement(t *testing.T) {
	runner, store := newRunner(t, &fakeUploader{}, &fakeScanner{}, 0)

	files := localFiles(t, "receipt.pdf", "statement.pdf")
	ids := runner.Ingest(context.Background(), files[0])
	runner.Wait()

	childID, err := runner.AttachStatement(context.Background(), ids[0], files[1])
	if err != nil {
		t.Fatalf("AttachStatement: %v", err)
	}
	runner.Wait()

	child, ok := store.Receipt(childID)
	if !ok {
		t.Fatal("statement receipt missing")
	}
	if child.ParentID != ids[0] {
		t.Fatalf("parent id = %q", child.ParentID)
	}
	if child.Status != draft.StatusReady {
		t.Fatalf("statement status = %s", child.Status)
	}
	if !child.Amount.IsZero() {
		t.Fatalf("statements carry no amount, got %s", child.Amount)
	}
	if !store.HasStatement(ids[0]) {
		t.Fatal("parent must derive verified state from the child")
	}

	receipts := store.Receipts()
	if receipts[1].ID != childID {
		t.Fatal("statement must sit immediately after its parent")
	}

	if _, err := runner.AttachStatement(context.Background(), ids[0], files[1]); err == nil {
		t.Fatal("expected second statement on the same parent to be refused")
	}
	if _, err := runner.AttachStatement(context.Background(), childID, files[1]); err == nil {
		t.Fatal("expected statement-on-statement to be refused")
	}
}

func TestAttachStatementRefusedWhileParentInFlight(t *testing.T) {
	uploader := &fakeUploader{blockOn: map[string]struct{}{"slow.pdf": {}}}
	runner, _ := newRunner(t, uploader, &fakeScanner{}, 0)

	files := localFiles(t, "slow.pdf", "statement.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	ids := runner.Ingest(ctx, files[0])

	if _, err := runner.AttachStatement(ctx, ids[0], files[1]); err == nil {
		t.Fatal("expected attach to in-flight parent to be refused")
	}

	cancel()
	runner.Wait()
}

func TestAnalyzingStateObservable(t *testing.T) {
	runner, store := newRunner(t, &fakeUploader{}, &fakeScanner{}, 25*time.Millisecond)
	changes := store.Subscribe()

	ids := runner.Ingest(context.Background(), localFiles(t, "a.pdf")...)

	sawAnalyzing := false
	deadline := time.After(5 * time.Second)
	for {
		receipt, _ := store.Receipt(ids[0])
		if receipt.Status == draft.StatusAnalyzing {
			sawAnalyzing = true
		}
		if receipt.Status == draft.StatusReady || receipt.Status == draft.StatusError {
			break
		}
		select {
		case <-changes:
		case <-deadline:
			t.Fatal("receipt never settled")
		}
	}
	runner.Wait()

	if !sawAnalyzing {
		t.Fatal("analyzing state was never observable")
	}
}
