package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// formatCOP renders a decimal with thousands separators, matching the
// "{:,.Nf}" layout the recipient is used to.
func formatCOP(v decimal.Decimal, places int32) string {
	fixed := v.StringFixed(places)

	negative := strings.HasPrefix(fixed, "-")
	if negative {
		fixed = fixed[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(fixed, ".")

	n := len(intPart)
	if n > 3 {
		var b strings.Builder
		for i, c := range intPart {
			if i > 0 && (n-i)%3 == 0 {
				b.WriteByte(',')
			}
			b.WriteRune(c)
		}
		intPart = b.String()
	}

	out := intPart
	if hasFrac {
		out += "." + fracPart
	}
	if negative {
		out = "-" + out
	}
	return out
}

// formatSignedPct renders a percentage with an explicit sign, "{:+.2f}" style.
func formatSignedPct(v decimal.Decimal) string {
	fixed := v.StringFixed(2)
	if !strings.HasPrefix(fixed, "-") {
		fixed = "+" + fixed
	}
	return fixed
}
