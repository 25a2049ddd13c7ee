package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"kvitt/internal/history"
	"kvitt/internal/testsupport"
)

func TestAddAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	ctx := context.Background()
	first := history.Entry{
		ExpenseID:    "exp-1",
		Campus:       "Oslo",
		Department:   "Events",
		Summary:      "Stand equipment",
		Total:        decimal.RequireFromString("370.50"),
		ReceiptCount: 2,
		SubmittedAt:  time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
	}
	if _, err := store.Add(ctx, first); err != nil {
		t.Fatalf("Add: %v", err)
	}
	second := history.Entry{
		ExpenseID:    "exp-2",
		Campus:       "Bergen",
		Department:   "Promo",
		Total:        decimal.RequireFromString("120"),
		ReceiptCount: 1,
		SubmittedAt:  time.Date(2026, 8, 28, 9, 0, 0, 0, time.UTC),
	}
	if _, err := store.Add(ctx, second); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ExpenseID != "exp-2" {
		t.Fatalf("expected most recent first, got %q", entries[0].ExpenseID)
	}
	if !entries[1].Total.Equal(decimal.RequireFromString("370.50")) {
		t.Fatalf("total round trip: %s", entries[1].Total)
	}
	if !entries[1].SubmittedAt.Equal(first.SubmittedAt) {
		t.Fatalf("submitted_at round trip: %v", entries[1].SubmittedAt)
	}
}

func TestAddDefaultsSubmittedAt(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if _, err := store.Add(context.Background(), history.Entry{ExpenseID: "exp-1", Total: decimal.Zero}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	entries, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if entries[0].SubmittedAt.IsZero() {
		t.Fatal("expected submitted_at to default to now")
	}
}

func TestOpenRefusesSecondProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_ = testsupport.MustOpenHistory(t, cfg)

	if _, err := history.Open(cfg); err == nil {
		t.Fatal("expected the file lock to refuse a second open")
	}
}
