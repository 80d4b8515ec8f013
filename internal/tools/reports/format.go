package reports

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// formatAmount renders a monetary value with its currency symbol when
// the code is a known ISO 4217 unit, falling back to "<amount> <code>".
func formatAmount(code string, amount float64) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		if code == "" {
			return printer.Sprintf("%.2f", amount)
		}
		return printer.Sprintf("%.2f %s", amount, code)
	}
	return printer.Sprintf("%v", currency.Symbol(unit.Amount(amount)))
}

// formatCount renders an integer with locale grouping.
func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}
