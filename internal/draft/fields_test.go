package draft_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"kvitt/internal/draft"
)

const settlement = "NOK"

func foreignReceipt(id string) draft.Receipt {
	return draft.Receipt{
		ID:                id,
		Status:            draft.StatusReady,
		Amount:            decimal.RequireFromString("120"),
		OriginalAmount:    decimal.RequireFromString("100"),
		ExchangeRate:      decimal.RequireFromString("1.2"),
		CurrencyCode:      "USD",
		Estimated:         true,
		StatementRequired: true,
	}
}

func TestApplyTextEdit(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(readyReceipt("r1", "250"))

	if err := store.Apply(settlement, draft.TextEdit("r1", draft.FieldVendor, "IKEA")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	receipt, _ := store.Receipt("r1")
	if receipt.Vendor != "IKEA" {
		t.Fatalf("vendor = %q", receipt.Vendor)
	}
}

func TestApplyRejectsNegativeNumbers(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(readyReceipt("r1", "250"))

	err := store.Apply(settlement, draft.NumberEdit("r1", draft.FieldAmount, decimal.RequireFromString("-5")))
	if err == nil {
		t.Fatal("expected negative amount to be rejected")
	}
	receipt, _ := store.Receipt("r1")
	if !receipt.Amount.Equal(decimal.RequireFromString("250")) {
		t.Fatalf("rejected edit mutated the receipt: %s", receipt.Amount)
	}
}

func TestApplyRejectsMalformedDate(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(readyReceipt("r1", "250"))

	if err := store.Apply(settlement, draft.TextEdit("r1", draft.FieldDate, "31/12/2025")); err == nil {
		t.Fatal("expected non-ISO date to be rejected")
	}
	if err := store.Apply(settlement, draft.TextEdit("r1", draft.FieldDate, "2025-12-31")); err != nil {
		t.Fatalf("ISO date rejected: %v", err)
	}
}

func TestApplyRefusedWhileInFlight(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(draft.Receipt{ID: "r1", Status: draft.StatusProcessing})

	if err := store.Apply(settlement, draft.TextEdit("r1", draft.FieldVendor, "IKEA")); err == nil {
		t.Fatal("expected edit on in-flight receipt to be refused")
	}
}

func TestApplyUnknownReceipt(t *testing.T) {
	store := draft.NewStore()
	if err := store.Apply(settlement, draft.TextEdit("ghost", draft.FieldVendor, "IKEA")); err == nil {
		t.Fatal("expected unknown receipt to error")
	}
}

func TestEditOriginalAmountRederivesSettlement(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(foreignReceipt("f1"))

	if err := store.Apply(settlement, draft.NumberEdit("f1", draft.FieldOriginalAmount, decimal.RequireFromString("50"))); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	receipt, _ := store.Receipt("f1")
	if !receipt.Amount.Equal(decimal.RequireFromString("60")) {
		t.Fatalf("amount = %s, want 60", receipt.Amount)
	}
	if !receipt.Estimated {
		t.Fatal("re-derived amount must stay estimated")
	}
}

func TestEditExchangeRateRederivesSettlement(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(foreignReceipt("f1"))

	if err := store.Apply(settlement, draft.NumberEdit("f1", draft.FieldExchangeRate, decimal.RequireFromString("2"))); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	receipt, _ := store.Receipt("f1")
	if !receipt.Amount.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("amount = %s, want 200", receipt.Amount)
	}
}

func TestEditAmountDirectlyClearsEstimate(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(foreignReceipt("f1"))

	if err := store.Apply(settlement, draft.NumberEdit("f1", draft.FieldAmount, decimal.RequireFromString("118.37"))); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	receipt, _ := store.Receipt("f1")
	if receipt.Estimated {
		t.Fatal("a directly entered settlement amount is verified, not estimated")
	}
	if !receipt.OriginalAmount.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("document figure must be left alone, got %s", receipt.OriginalAmount)
	}
}

func TestEditCurrencyRecomputesStatementRequired(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(foreignReceipt("f1"))

	if err := store.Apply(settlement, draft.TextEdit("f1", draft.FieldCurrency, "nok")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	receipt, _ := store.Receipt("f1")
	if receipt.CurrencyCode != "NOK" {
		t.Fatalf("currency = %q, want NOK", receipt.CurrencyCode)
	}
	if receipt.StatementRequired {
		t.Fatal("settlement-currency receipt must not require a statement")
	}
}

func TestBeginEndEdit(t *testing.T) {
	store := draft.NewStore()
	store.AddReceipt(readyReceipt("r1", "250"))

	if err := store.BeginEdit("r1"); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	receipt, _ := store.Receipt("r1")
	if receipt.Status != draft.StatusEditing {
		t.Fatalf("status = %s, want editing", receipt.Status)
	}
	if err := store.BeginEdit("r1"); err == nil {
		t.Fatal("expected BeginEdit on editing receipt to fail")
	}
	if err := store.EndEdit("r1"); err != nil {
		t.Fatalf("EndEdit: %v", err)
	}
	receipt, _ = store.Receipt("r1")
	if receipt.Status != draft.StatusReady {
		t.Fatalf("status = %s, want ready", receipt.Status)
	}
}

func TestParseField(t *testing.T) {
	if field, ok := draft.ParseField(" Original_Amount "); !ok || field != draft.FieldOriginalAmount {
		t.Fatalf("ParseField = %v, %v", field, ok)
	}
	if _, ok := draft.ParseField("nonsense"); ok {
		t.Fatal("expected unknown field to fail")
	}
}
