package util

import (
	"math"

	"github.com/shopspring/decimal"
)

// DecimalFromFloat rounds v to the given number of fractional digits.
// decimal.NewFromFloat panics on NaN and infinities, so those are rejected first.
func DecimalFromFloat(v float64, places int32) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, NewUtilError(ErrCodeNonFiniteDecimal, "value is not a finite number", nil, v)
	}
	return decimal.NewFromFloat(v).Round(places), nil
}

func DecimalToFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
