package session_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"kvitt/internal/config"
	"kvitt/internal/draft"
	"kvitt/internal/logging"
	"kvitt/internal/session"
	"kvitt/internal/testsupport"
)

// fakeBackendServer serves the vault, extraction, and ledger endpoints from
// a single httptest server so a session can run end to end.
func fakeBackendServer(t *testing.T) *httptest.Server {
	t.Helper()
	var fileSeq, attachmentSeq atomic.Int64
	mux := http.NewServeMux()

	mux.HandleFunc("POST /files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"file":    map[string]string{"id": fmt.Sprintf("file-%d", fileSeq.Add(1))},
		})
	})
	mux.HandleFunc("POST /extract", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"description": "Team lunch",
				"vendor":      "Kafe Sol",
				"amount":      480.0,
				"date":        "2026-08-28",
				"currency":    "NOK",
				"confidence":  0.92,
			},
		})
	})
	mux.HandleFunc("POST /attachments", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"attachment": map[string]string{"id": fmt.Sprintf("att-%d", attachmentSeq.Add(1))},
		})
	})
	mux.HandleFunc("POST /expenses", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"expense": map[string]string{"id": "exp-77"},
		})
	})
	mux.HandleFunc("GET /campuses", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"campuses": []map[string]string{{"id": "c1", "name": "Oslo"}},
		})
	})
	mux.HandleFunc("GET /campuses/c1/departments", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"departments": []map[string]string{{"id": "d1", "name": "Events"}},
		})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newSession(t *testing.T, cfg *config.Config) *session.Session {
	t.Helper()
	sess, err := session.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	t.Cleanup(func() {
		sess.Close()
	})
	return sess
}

func TestSessionEndToEnd(t *testing.T) {
	server := fakeBackendServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Vault.URL = server.URL
	cfg.OCR.URL = server.URL
	cfg.Ledger.URL = server.URL

	sess := newSession(t, cfg)
	ctx := context.Background()

	dir := t.TempDir()
	paths := []string{
		testsupport.WriteReceiptFile(t, dir, "lunch.pdf"),
		testsupport.WriteReceiptFile(t, dir, "taxi.jpg"),
	}
	ids, err := sess.AddFiles(ctx, paths)
	if err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %d", len(ids))
	}
	if err := sess.WaitUntilSettled(ctx); err != nil {
		t.Fatalf("WaitUntilSettled: %v", err)
	}
	if !sess.Store().AllReceiptsReady() {
		t.Fatal("expected both receipts ready")
	}

	if got := sess.SuggestSummary(); got != "Receipts from Kafe Sol" {
		t.Fatalf("SuggestSummary = %q", got)
	}

	if err := sess.SetAssignment(ctx, "c1", "d1"); err != nil {
		t.Fatalf("SetAssignment: %v", err)
	}
	if name := sess.Store().Assignment().CampusName; name != "Oslo" {
		t.Fatalf("campus name = %q", name)
	}
	sess.SetProfile("Kari", "1234.56.78903")
	sess.SetSummary("Stand equipment")

	expenseID, err := sess.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if expenseID != "exp-77" {
		t.Fatalf("expense id = %q", expenseID)
	}
	if sess.Store().Phase() != draft.PhaseComplete {
		t.Fatalf("phase = %s", sess.Store().Phase())
	}

	// The submission lands in the local history log.
	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	log := testsupport.MustOpenHistory(t, cfg)
	entries, err := log.List(ctx)
	if err != nil {
		t.Fatalf("history.List: %v", err)
	}
	if len(entries) != 1 || entries[0].ExpenseID != "exp-77" {
		t.Fatalf("history entries: %+v", entries)
	}
	if entries[0].ReceiptCount != 2 {
		t.Fatalf("receipt count = %d", entries[0].ReceiptCount)
	}
}

func TestSessionSubmitRefusedBeforeAssignment(t *testing.T) {
	server := fakeBackendServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Vault.URL = server.URL
	cfg.OCR.URL = server.URL
	cfg.Ledger.URL = server.URL

	sess := newSession(t, cfg)
	ctx := context.Background()

	paths := []string{testsupport.WriteReceiptFile(t, t.TempDir(), "lunch.pdf")}
	if _, err := sess.AddFiles(ctx, paths); err != nil {
		t.Fatalf("AddFiles: %v", err)
	}
	if err := sess.WaitUntilSettled(ctx); err != nil {
		t.Fatalf("WaitUntilSettled: %v", err)
	}

	if _, err := sess.Submit(ctx); err == nil {
		t.Fatal("expected submission without assignment to be refused")
	}
	if sess.Store().Phase() != draft.PhaseDraft {
		t.Fatalf("phase = %s", sess.Store().Phase())
	}
}

func TestAddFilesRejectsMissingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess := newSession(t, cfg)

	if _, err := sess.AddFiles(context.Background(), []string{"/does/not/exist.pdf"}); err == nil {
		t.Fatal("expected missing file to be rejected")
	}
	if _, err := sess.AddFiles(context.Background(), []string{t.TempDir()}); err == nil {
		t.Fatal("expected directory to be rejected")
	}
}

func TestWaitUntilSettledHonorsContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sess := newSession(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess.Store().AddReceipt(draft.Receipt{ID: "r1", Status: draft.StatusProcessing})
	if err := sess.WaitUntilSettled(ctx); err == nil {
		t.Fatal("expected cancelled context to abort the wait")
	}
}
