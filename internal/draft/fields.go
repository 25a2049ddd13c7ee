package draft

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kvitt/internal/currency"
)

// Field enumerates the receipt fields a manual correction may touch. The
// set is closed so dispatch is exhaustive instead of stringly-typed.
type Field int

const (
	FieldDescription Field = iota
	FieldVendor
	FieldDate
	FieldAmount
	FieldOriginalAmount
	FieldExchangeRate
	FieldCurrency
)

var fieldNames = map[Field]string{
	FieldDescription:    "description",
	FieldVendor:         "vendor",
	FieldDate:           "date",
	FieldAmount:         "amount",
	FieldOriginalAmount: "original_amount",
	FieldExchangeRate:   "exchange_rate",
	FieldCurrency:       "currency",
}

// String returns the canonical field name.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField resolves a canonical field name.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range fieldNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

// numeric reports whether the field carries a decimal value.
func (f Field) numeric() bool {
	switch f {
	case FieldAmount, FieldOriginalAmount, FieldExchangeRate:
		return true
	default:
		return false
	}
}

// FieldEdit is one validated correction intent against a receipt.
type FieldEdit struct {
	ReceiptID string
	Field     Field
	Text      string
	Number    decimal.Decimal
}

// TextEdit builds an edit for a text-valued field.
func TextEdit(receiptID string, field Field, value string) FieldEdit {
	return FieldEdit{ReceiptID: receiptID, Field: field, Text: value}
}

// NumberEdit builds an edit for a decimal-valued field.
func NumberEdit(receiptID string, field Field, value decimal.Decimal) FieldEdit {
	return FieldEdit{ReceiptID: receiptID, Field: field, Number: value}
}

// Apply validates and applies a correction. Edits are accepted only for
// ready or editing receipts; in-flight and failed receipts refuse them.
// Editing the document figure or rate re-derives the settlement amount;
// editing the settlement amount directly marks it verified and leaves the
// document figure alone.
func (s *Store) Apply(settlement string, edit FieldEdit) error {
	if _, ok := fieldNames[edit.Field]; !ok {
		return fmt.Errorf("unknown field %v", edit.Field)
	}
	if edit.Field.numeric() && edit.Number.IsNegative() {
		return fmt.Errorf("%s: negative values are not allowed", edit.Field)
	}
	if edit.Field == FieldDate && edit.Text != "" {
		if _, err := time.Parse("2006-01-02", edit.Text); err != nil {
			return fmt.Errorf("date: expected YYYY-MM-DD, got %q", edit.Text)
		}
	}

	var applyErr error
	found := s.UpdateReceipt(edit.ReceiptID, func(r *Receipt) {
		if r.Status != StatusReady && r.Status != StatusEditing {
			applyErr = fmt.Errorf("receipt %s is %s; only ready receipts accept edits", r.ID, r.Status)
			return
		}
		switch edit.Field {
		case FieldDescription:
			r.Description = edit.Text
		case FieldVendor:
			r.Vendor = edit.Text
		case FieldDate:
			r.Date = edit.Text
		case FieldAmount:
			r.Amount = edit.Number
			r.Estimated = false
		case FieldOriginalAmount:
			r.OriginalAmount = edit.Number
			if r.ExchangeRate.IsPositive() {
				r.Amount = currency.Derive(r.OriginalAmount, r.ExchangeRate)
				r.Estimated = true
			}
		case FieldExchangeRate:
			r.ExchangeRate = edit.Number
			if r.ExchangeRate.IsPositive() {
				r.Amount = currency.Derive(r.OriginalAmount, r.ExchangeRate)
				r.Estimated = true
			}
		case FieldCurrency:
			r.CurrencyCode = strings.ToUpper(strings.TrimSpace(edit.Text))
			r.StatementRequired = currency.IsForeign(settlement, r.CurrencyCode) && !r.IsStatement()
		}
	})
	if !found {
		return fmt.Errorf("receipt %s not found", edit.ReceiptID)
	}
	return applyErr
}

// BeginEdit transitions a ready receipt into the editing state.
func (s *Store) BeginEdit(id string) error {
	var err error
	found := s.UpdateReceipt(id, func(r *Receipt) {
		if r.Status != StatusReady {
			err = fmt.Errorf("receipt %s is %s; only ready receipts can be edited", r.ID, r.Status)
			return
		}
		r.Status = StatusEditing
	})
	if !found {
		return fmt.Errorf("receipt %s not found", id)
	}
	return err
}

// EndEdit returns an editing receipt to the ready state.
func (s *Store) EndEdit(id string) error {
	var err error
	found := s.UpdateReceipt(id, func(r *Receipt) {
		if r.Status != StatusEditing {
			err = fmt.Errorf("receipt %s is %s, not editing", r.ID, r.Status)
			return
		}
		r.Status = StatusReady
	})
	if !found {
		return fmt.Errorf("receipt %s not found", id)
	}
	return err
}
