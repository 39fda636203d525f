package analytics

import (
	"strings"

	"github.com/shopspring/decimal"

	"vegakash/internal/core"
)

// Money renders m with the engine currency and two decimals, e.g. "₹1234.50".
func (e Engine) Money(m core.Money) string {
	return e.currency + m.String()
}

// Decimal renders d with the engine currency and two decimals.
func (e Engine) Decimal(d decimal.Decimal) string {
	return e.currency + d.StringFixed(2)
}

// Rounded renders d with the currency, no decimals and thousands
// separators, e.g. "₹12,346".
func (e Engine) Rounded(d decimal.Decimal) string {
	return e.currency + Grouped(d.Round(0).StringFixed(0))
}

// Grouped inserts comma thousands separators into an integer string.
func Grouped(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Percent renders a percentage with one decimal, e.g. "76.9".
func Percent(p decimal.Decimal) string {
	return p.StringFixed(1)
}
