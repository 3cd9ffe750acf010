package models

import "fmt"

// All monetary amounts in the system are int64 minor units where one TON is
// 10,000 units (four decimal places). Integer arithmetic keeps many small
// settlements from accumulating rounding drift.
const MinorUnitsPerTON int64 = 10_000

// TON converts a whole-TON value to minor units.
func TON(v int64) int64 {
	return v * MinorUnitsPerTON
}

// FormatTON renders a minor-unit amount as a decimal TON string.
func FormatTON(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := amount / MinorUnitsPerTON
	frac := amount % MinorUnitsPerTON
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	s := fmt.Sprintf("%s%d.%04d", sign, whole, frac)
	// Trim trailing zeros in the fractional part
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s
}
