package currency

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders settlement-currency amounts for terminal display using
// locale-aware digit grouping.
type Formatter struct {
	printer *message.Printer
	code    string
}

// NewFormatter builds a formatter for the given ISO code and BCP 47 locale.
// An unparseable locale falls back to Norwegian Bokmål.
func NewFormatter(code, locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse("nb-NO")
	}
	return &Formatter{printer: message.NewPrinter(tag), code: code}
}

// Format renders an amount with two decimal places and the currency code,
// e.g. "1 234,50 NOK" under a Norwegian locale.
func (f *Formatter) Format(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	return f.printer.Sprintf("%v %s", number.Decimal(value, number.MinFractionDigits(2), number.MaxFractionDigits(2)), f.code)
}
