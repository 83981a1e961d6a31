package fees

import (
	"fmt"
	"math"
	"strings"
)

// Currency formats an amount with the given symbol, two decimals, and
// thousands separators (e.g. "£1,234.56").
func Currency(amount float64, symbol string) string {
	formatted := Number(math.Abs(amount), 2)
	if amount < 0 {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// Number formats a value with the given number of decimals and thousands
// separators.
func Number(value float64, decimals int) string {
	formatted := fmt.Sprintf("%.*f", decimals, value)
	intPart, decPart, hasDec := strings.Cut(formatted, ".")

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	if len(intPart) > 3 {
		var b strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				b.WriteByte(',')
			}
			b.WriteRune(digit)
		}
		intPart = b.String()
	}

	if neg {
		intPart = "-" + intPart
	}
	if hasDec {
		return intPart + "." + decPart
	}
	return intPart
}
