package money

import "github.com/shopspring/decimal"

// Amounts are integral VND. Percentage math goes through decimal so no
// floating-point error accumulates across recomputations; calling any helper
// twice with the same inputs yields the same output.

// PercentOf returns pct percent of amount, rounded half-up to a whole unit.
func PercentOf(amount int64, pct float64) int64 {
	if amount <= 0 || pct <= 0 {
		return 0
	}
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// Clamp bounds amount to the inclusive [min, max] range.
func Clamp(amount, min, max int64) int64 {
	if amount < min {
		return min
	}
	if amount > max {
		return max
	}
	return amount
}

// SubtractClamped returns a-b floored at zero.
func SubtractClamped(a, b int64) int64 {
	if b >= a {
		return 0
	}
	return a - b
}

// Min returns the smaller of two amounts.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
