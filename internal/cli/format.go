// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/pipeline"
)

const currency = money.USD

// wholeDollars formats en-US USD without a fractional part, "$1,235".
var wholeDollars = money.NewFormatter(0, ".", ",", "$", "$1")

// FormatCurrency formats a USD amount rounded to whole dollars.
// e.g., 1234.5 -> "$1,235", -20 -> "-$20"
func FormatCurrency(amount float64) string {
	return wholeDollars.Format(decimal.NewFromFloat(amount).Round(0).IntPart())
}

// FormatCurrencyCents formats a USD amount with cents.
// e.g., 1234.5 -> "$1,234.50"
func FormatCurrencyCents(amount float64) string {
	cur := money.GetCurrency(currency)
	cents := decimal.NewFromFloat(amount).Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(cents.IntPart())
}

// FormatValue formats v as whole dollars; undefined values show as $0.
func FormatValue(v pipeline.Value) string {
	return FormatCurrency(v.OrZero())
}

// FormatPercentChange formats a percentage with an explicit sign.
// e.g., 50 -> "+50.0%", -12.34 -> "-12.3%"
func FormatPercentChange(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', 1, 64)
	if pct >= 0 && !strings.HasPrefix(s, "-") {
		return "+" + s + "%"
	}
	return s + "%"
}

// FormatDifferenceLabel describes how far actual is from the target.
// A zero difference counts as ahead.
func FormatDifferenceLabel(difference float64) string {
	label := "Difference: " + FormatCurrency(difference)
	if difference >= 0 {
		return label + " (Ahead)"
	}
	return label + " (Behind)"
}

// FormatChartDate formats a date as M/D/YYYY.
func FormatChartDate(d model.Date) string {
	return d.Format("1/2/2006")
}

// FormatEntryCount returns "1 entry tracked" or "N entries tracked".
func FormatEntryCount(n int) string {
	if n == 1 {
		return "1 entry tracked"
	}
	return FormatNumber(int64(n)) + " entries tracked"
}

// FormatMonths formats a month span with one decimal.
func FormatMonths(v pipeline.Value) string {
	return fmt.Sprintf("%.1f mo", v.OrZero())
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// Recent returns the last n entries, newest first.
func Recent(entries []model.Entry, n int) []model.Entry {
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]model.Entry, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		out = append(out, entries[i])
	}
	return out
}
