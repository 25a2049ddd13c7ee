package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Extraction carries the currency-relevant fields read off a document.
type Extraction struct {
	// Amount is the figure printed on the document, in Currency.
	Amount decimal.Decimal
	// Currency is the ISO 4217 code of the document, empty when unknown.
	Currency string
	// ExchangeRate converts Currency into the settlement currency.
	ExchangeRate decimal.Decimal
	// SettlementAmount is a settlement-currency figure supplied directly
	// by the extractor or backend; when present it is trusted over the
	// rate-derived estimate.
	SettlementAmount decimal.Decimal
	// HasSettlementAmount distinguishes a genuine zero from absence.
	HasSettlementAmount bool
}

// Resolution is the authoritative amount decision for one receipt.
type Resolution struct {
	// Amount in the settlement currency.
	Amount decimal.Decimal
	// OriginalAmount is the document figure retained for re-derivation;
	// zero for settlement-currency documents.
	OriginalAmount decimal.Decimal
	// Estimated marks Amount as rate-derived rather than read directly.
	Estimated bool
	// StatementRequired marks the receipt as wanting a corroborating bank
	// statement before submission is advisable.
	StatementRequired bool
}

// IsForeign reports whether a document currency differs from the settlement
// currency. An absent currency is treated as settlement-denominated.
func IsForeign(settlement, code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return false
	}
	return code != strings.ToUpper(strings.TrimSpace(settlement))
}

// Resolve computes the authoritative settlement-currency amount for a
// document. Settlement-currency documents pass through untouched. Foreign
// documents derive amount = original x rate unless a settlement figure was
// supplied directly, which is trusted instead.
func Resolve(settlement string, ex Extraction) Resolution {
	if !IsForeign(settlement, ex.Currency) {
		amount := ex.Amount
		if ex.HasSettlementAmount {
			amount = ex.SettlementAmount
		}
		return Resolution{Amount: amount}
	}

	res := Resolution{
		OriginalAmount:    ex.Amount,
		StatementRequired: true,
	}
	switch {
	case ex.HasSettlementAmount:
		res.Amount = ex.SettlementAmount
	case ex.ExchangeRate.IsPositive():
		res.Amount = Derive(ex.Amount, ex.ExchangeRate)
		res.Estimated = true
	default:
		// No rate known; carry the document figure as a placeholder
		// estimate until one is supplied.
		res.Amount = ex.Amount
		res.Estimated = true
	}
	return res
}

// Derive recomputes a settlement amount from a document figure and rate.
// Derivation is one-directional: editing the settlement amount never
// back-computes the document figure.
func Derive(original, rate decimal.Decimal) decimal.Decimal {
	return original.Mul(rate)
}
