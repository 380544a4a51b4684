package screening

import "fmt"

// FormatMarketCap abbreviates a market capitalisation: $1.23T, $45.60B, $789.00M.
func FormatMarketCap(mc *float64) string {
	if mc == nil || *mc <= 0 {
		return "N/A"
	}
	v := *mc
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	default:
		return fmt.Sprintf("$%.2fM", v/1e6)
	}
}
