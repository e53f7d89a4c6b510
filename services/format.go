package services

import (
	"fmt"
	"math"
	"strings"

	"offerdesk/lineitems"
)

// FormatMoney renders an amount rounded up to the whole currency unit with
// comma thousands separators, e.g. "€6,000". Rounding is display-only.
func FormatMoney(amount float64, symbol string) string {
	v := lineitems.Ceil(amount)
	negative := v < 0
	if negative {
		v = -v
	}
	result := symbol + groupThousands(fmt.Sprintf("%.0f", v))
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatQty returns whole numbers without decimals and fractional values
// with 2 decimal places.
func FormatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}

// FormatPercent renders a percentage with at most one decimal.
func FormatPercent(p float64) string {
	if p == math.Trunc(p) {
		return fmt.Sprintf("%.0f%%", p)
	}
	return fmt.Sprintf("%.1f%%", p)
}

// Humanize turns a select value like "on_premise" into "On premise".
func Humanize(value string) string {
	if value == "" {
		return ""
	}
	s := strings.ReplaceAll(value, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}
