package screening

import (
	"fmt"

	"HalalScreener/internal/model"
)

// Purify computes the share of returns to donate: interest expense over total
// revenue, in percent rounded to 4 places. It does not depend on any screen
// verdict.
func Purify(p *model.CompanyProfile) model.Purification {
	var pct float64
	if model.Positive(p.TotalRevenue) && p.InterestExpense > 0 {
		pct = round(p.InterestExpense / *p.TotalRevenue * 100, 4)
	}
	if pct <= 0 {
		return model.Purification{Pct: 0, Note: "No purification required."}
	}
	return model.Purification{
		Pct: pct,
		Note: fmt.Sprintf("Donate %.3f%% of your returns from this stock to charity "+
			"to purify any residual impermissible income.", pct),
	}
}
