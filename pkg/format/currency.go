// Package format renders monetary and power values for display.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Currency returns a won amount with thousands separators and no decimals (e.g., "-₩1,234,560").
func Currency(amount float64) string {
	formatted := group(fmt.Sprintf("%.0f", math.Abs(amount)))
	if amount < 0 && formatted != "0" {
		return "-₩" + formatted
	}
	return "₩" + formatted
}

// KW formats a power value in kilowatts with two decimals.
func KW(value float64) string {
	return fmt.Sprintf("%.2f kW", value)
}

// Percent formats a value already on the 0..100 scale.
func Percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

func group(intPart string) string {
	if len(intPart) <= 3 {
		return intPart
	}
	var builder strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			builder.WriteByte(',')
		}
		builder.WriteRune(digit)
	}
	return builder.String()
}
