// Package currency resolves the authoritative settlement-currency amount
// for a receipt and tracks whether it is estimated or verified.
//
// Settlement-currency documents pass through untouched. Foreign-currency
// documents derive their amount from the document figure and exchange rate
// unless the extractor supplied a settlement figure directly; those
// receipts are also flagged as wanting a corroborating bank statement.
// Derivation is one-directional: re-deriving happens when the document
// figure or rate changes, never when the settlement amount is edited.
//
// All computation here is pure; the draft store owns the state.
package currency
