package ocr

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// resultWire is the JSON shape shared by the extraction endpoint and the
// Gemini prompt.
type resultWire struct {
	Description              string   `json:"description"`
	Vendor                   string   `json:"vendor"`
	Amount                   float64  `json:"amount"`
	AmountSettlementCurrency *float64 `json:"amountInSettlementCurrency"`
	Date                     string   `json:"date"`
	Currency                 string   `json:"currency"`
	ExchangeRate             float64  `json:"exchangeRate"`
	Confidence               float64  `json:"confidence"`
}

func (w *resultWire) toResult() *Result {
	res := &Result{
		Description:  strings.TrimSpace(w.Description),
		Vendor:       strings.TrimSpace(w.Vendor),
		Date:         normalizeDate(w.Date),
		Amount:       decimal.NewFromFloat(w.Amount),
		Currency:     strings.ToUpper(strings.TrimSpace(w.Currency)),
		ExchangeRate: decimal.NewFromFloat(w.ExchangeRate),
		Confidence:   clamp01(w.Confidence),
	}
	if w.AmountSettlementCurrency != nil {
		res.SettlementAmount = decimal.NewFromFloat(*w.AmountSettlementCurrency)
		res.HasSettlement = true
	}
	return res
}

// parseResultJSON parses a model response that may wrap the JSON object in
// markdown fences or surrounding prose.
func parseResultJSON(text string) (*Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[start : end+1]

	var wire resultWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal extraction json: %w", err)
	}
	return wire.toResult(), nil
}

var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02.01.2006",
	"01/02/2006",
	"02-01-2006",
}

// normalizeDate coerces the common formats models emit into ISO 8601. An
// unparseable or missing date yields an empty string; the consuming surface
// treats that as "fill in manually".
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, format := range dateFormats {
		if parsed, err := time.Parse(format, value); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return ""
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
