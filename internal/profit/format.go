package profit

import (
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// QuoteCurrency is the single currency all prices are expressed in.
const QuoteCurrency = "USD"

// PriceDecimals returns the display precision for a price: cheap assets get
// more digits.
func PriceDecimals(price float64) int32 {
	switch {
	case price < 10:
		return 6
	case price < 100:
		return 4
	default:
		return 2
	}
}

// FormatPrice formats a price with the tiered precision of PriceDecimals.
func FormatPrice(price float64) string {
	return FormatFixed(price, PriceDecimals(price))
}

// FormatFixed formats v with exactly places fractional digits. Rounding is
// done on the exact binary value, half away from zero, so 1.005 gives
// "1.00" and 0.125 gives "0.13".
func FormatFixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return new(big.Rat).SetFloat64(v).FloatString(int(places))
}

// RoundFixed rounds v the same way FormatFixed does and returns the number.
func RoundFixed(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.RequireFromString(FormatFixed(v, places)).InexactFloat64()
}

// FormatPercent formats a percentage with two decimals and a % suffix.
func FormatPercent(p float64) string {
	return FormatFixed(p, 2) + "%"
}

// FormatRate formats a fractional rate (0.001) as a percentage ("0.10%").
func FormatRate(rate float64) string {
	return FormatPercent(rate * 100)
}

// FormatAmount formats an asset amount in plain decimal notation using the
// shortest digits that round-trip. Tiny amounts print as 0.0000001, never 1e-07.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
