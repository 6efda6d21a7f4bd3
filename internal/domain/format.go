package domain

import (
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	ten         = decimal.NewFromInt(10)
	hundred     = decimal.NewFromInt(100)
	tenThousand = decimal.NewFromInt(10_000)
)

// PricePlaces returns the number of decimals shown for a price.
// Thresholds are inclusive on the upper bucket: 10 shows 3 places, 100 shows 2, 10000 shows 1.
func PricePlaces(price decimal.Decimal) int32 {
	switch {
	case price.LessThan(ten):
		return 4
	case price.LessThan(hundred):
		return 3
	case price.LessThan(tenThousand):
		return 2
	default:
		return 1
	}
}

// FormatPrice renders a price with bucketed precision and a grouped integer part.
// The caller adds any currency symbol.
func FormatPrice(price decimal.Decimal) string {
	fixed := price.StringFixed(PricePlaces(price))
	return groupInteger(fixed)
}

// FormatChange renders a percent change as "+1.50%" / "-0.25%".
func FormatChange(pct decimal.Decimal) string {
	s := pct.StringFixed(2)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

// groupInteger adds thousands separators to the integer part of a fixed-point string.
func groupInteger(fixed string) string {
	intPart, frac, hasFrac := strings.Cut(fixed, ".")
	n, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return fixed
	}
	grouped := humanize.BigComma(n)
	if n.Sign() == 0 && strings.HasPrefix(intPart, "-") {
		// "-0.5" keeps its sign
		grouped = "-" + grouped
	}
	if hasFrac {
		return grouped + "." + frac
	}
	return grouped
}
