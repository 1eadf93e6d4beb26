// Package money holds the numeric helpers shared by estimates and invoices.
// Amounts are stored in minor units (cents); rates are percentages.
package money

import (
	"fmt"
	"math"
)

// TaxAmount computes the tax on a subtotal at the given percentage rate,
// rounded half away from zero.
func TaxAmount(subtotal int64, taxRate float64) int64 {
	return roundHalfAway(float64(subtotal) * taxRate / 100)
}

// ScalePercent scales an amount by pct/100, rounded half away from zero.
// Used for deposit invoicing.
func ScalePercent(amount int64, pct float64) int64 {
	return roundHalfAway(float64(amount) * pct / 100)
}

// LineTotal computes quantity × unit price in minor units.
func LineTotal(quantity float64, unitPrice int64) int64 {
	return roundHalfAway(quantity * float64(unitPrice))
}

// Format renders minor units as a plain decimal string, e.g. 54000 -> "540.00".
func Format(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100)
}

func roundHalfAway(v float64) int64 {
	return int64(math.Round(v))
}
