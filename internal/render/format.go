package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// longDateLayout renders 05 de enero de 2025
	longDateLayout = "02 de January de 2006"
	// monthYearLayout renders noviembre de 2025
	monthYearLayout = "January de 2006"
)

var spanishTitle = cases.Title(language.Spanish)

// FormatCOP renders an amount in Colombian pesos: "$ 150.000", "$ 1.234,50",
// "-$ 1.000". Cents are shown only when non zero.
func FormatCOP(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	amount = amount.Abs().Round(2)

	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Shift(2).IntPart()

	var b strings.Builder
	if negative && !amount.IsZero() {
		b.WriteString("-")
	}
	b.WriteString("$ ")
	b.WriteString(groupThousands(whole.String(), '.'))
	if cents != 0 {
		b.WriteString(fmt.Sprintf(",%02d", cents))
	}
	return b.String()
}

// groupThousands inserts sep every three digits from the right
func groupThousands(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatLongDate renders the UTC calendar day of t as "15 de enero de 2025"
func FormatLongDate(t time.Time) string {
	return monday.Format(t.UTC(), longDateLayout, monday.LocaleEsES)
}

// FormatMonthYear renders "noviembre de 2025"
func FormatMonthYear(t time.Time) string {
	return monday.Format(t.UTC(), monthYearLayout, monday.LocaleEsES)
}

// MonthName returns the capitalized Spanish month of t, e.g. "Noviembre"
func MonthName(t time.Time) string {
	return spanishTitle.String(monday.Format(t.UTC(), "January", monday.LocaleEsES))
}
