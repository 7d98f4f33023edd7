package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount the way invoices in the shop print it: Indian
// digit grouping with two decimals, e.g. 1234567.5 -> "Rs. 12,34,567.50".
func FormatINR(amount float64) string {
	return inr.Sprintf("Rs. %v", number.Decimal(amount,
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
