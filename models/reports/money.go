package reports

import "github.com/shopspring/decimal"

// Currency-safe arithmetic shared by every calculator. Monetary outputs are
// fixed-point with 2 decimal places; every ratio guards its denominator so a
// zero never propagates as NaN/Infinity.

func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ApplyPercent returns round2(amount * percent / 100).
func ApplyPercent(amount decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(percent).Div(decimal.NewFromInt(100)))
}

// RatioPercent returns 100 * part / whole, or 0 when whole is zero.
func RatioPercent(part decimal.Decimal, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return Round2(part.Mul(decimal.NewFromInt(100)).Div(whole))
}

// PerUnit returns amount / units, or 0 when units is zero.
func PerUnit(amount decimal.Decimal, units int) decimal.Decimal {
	if units == 0 {
		return decimal.Zero
	}
	return Round2(amount.Div(decimal.NewFromInt(int64(units))))
}

// ChangePercent returns 100 * (current - previous) / previous, or 0 when
// previous is zero.
func ChangePercent(current decimal.Decimal, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return Round2(current.Sub(previous).Mul(decimal.NewFromInt(100)).Div(previous))
}
