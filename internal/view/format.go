package view

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatMoney renders an amount in dollars with two decimals and grouped
// thousands, e.g. $1,234.50.
func FormatMoney(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	return sign + "$" + printer.Sprintf("%v", number.Decimal(f, number.Scale(2)))
}

// FormatCount renders an integer with grouped thousands.
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}
