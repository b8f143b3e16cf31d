package report

import "fmt"

// FormatMoney formats a dollar value with B/M/K suffixes for large amounts.
func FormatMoney(v float64) string {
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s%.1fB", neg, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s%.1fM", neg, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s%.1fK", neg, v/1e3)
	default:
		return fmt.Sprintf("%s%.2f", neg, v)
	}
}

// FormatPercent formats a 0..1 fraction as a percentage.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
