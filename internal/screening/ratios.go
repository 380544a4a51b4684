package screening

import (
	"fmt"
	"math"

	"HalalScreener/internal/model"
	"HalalScreener/internal/standard"
)

// Ratio names reported in FinancialResult.Ratios.
const (
	RatioDebt           = "debt_ratio"
	RatioSecurities     = "securities_ratio"
	RatioHaramRevenue   = "haram_revenue_ratio"
	RatioReceivables    = "receivables_ratio"
	RatioInterestIncome = "interest_income_ratio"
)

// ratioSpec describes one ratio of a battery. compute returns the ratio as a
// fraction; ok=false means an input was missing and warning says which.
type ratioSpec struct {
	name    string
	label   string
	key     string
	digits  int
	compute func(p *model.CompanyProfile) (v float64, ok bool, warning string)
	failFmt string
}

var (
	debtSpec = ratioSpec{
		name:    RatioDebt,
		label:   "Debt / Mkt Cap",
		key:     standard.KeyDebt,
		digits:  2,
		compute: debtShare,
		failFmt: "Debt/MktCap %.1f%% exceeds %.0f%% limit",
	}
	securitiesSpec = ratioSpec{
		name:    RatioSecurities,
		label:   "Interest-bearing securities",
		key:     standard.KeySecurities,
		digits:  2,
		compute: cashShare,
		failFmt: "Interest-bearing securities %.1f%% exceeds %.0f%% limit",
	}
	receivablesSpec = ratioSpec{
		name:    RatioReceivables,
		label:   "Receivables",
		key:     standard.KeyReceivables,
		digits:  2,
		compute: receivablesShare,
		failFmt: "Receivables %.1f%% exceeds %.0f%% limit",
	}
	haramRevenueSpec = ratioSpec{
		name:    RatioHaramRevenue,
		label:   "Impermissible revenue",
		key:     standard.KeyHaramRevenue,
		digits:  4,
		compute: interestShare,
		failFmt: "Impermissible revenue %.1f%% exceeds %.0f%% limit",
	}
	interestIncomeSpec = ratioSpec{
		name:    RatioInterestIncome,
		label:   "Interest income",
		key:     standard.KeyInterestIncome,
		digits:  4,
		compute: interestShare,
		failFmt: "Interest income %.1f%% exceeds %.0f%% limit",
	}
)

func debtShare(p *model.CompanyProfile) (float64, bool, string) {
	if !model.Positive(p.MarketCap) {
		return 0, false, "market cap unavailable: debt ratio skipped"
	}
	return p.TotalDebt / *p.MarketCap, true, ""
}

func cashShare(p *model.CompanyProfile) (float64, bool, string) {
	if !model.Positive(p.MarketCap) {
		return 0, false, "market cap unavailable: securities ratio skipped"
	}
	return p.TotalCash / *p.MarketCap, true, ""
}

func receivablesShare(p *model.CompanyProfile) (float64, bool, string) {
	if !model.Positive(p.TotalAssets) {
		return 0, false, "total assets unavailable: receivables ratio skipped"
	}
	if p.NetReceivables == nil {
		return 0, false, "net receivables unavailable: receivables ratio skipped"
	}
	return *p.NetReceivables / *p.TotalAssets, true, ""
}

// interestShare is interest expense over revenue. Missing inputs yield 0%,
// not a skipped ratio.
func interestShare(p *model.CompanyProfile) (float64, bool, string) {
	if model.Positive(p.TotalRevenue) && p.InterestExpense > 0 {
		return p.InterestExpense / *p.TotalRevenue, true, ""
	}
	return 0, true, ""
}

func battery(b standard.Battery) []ratioSpec {
	if b == standard.BatteryLegacy {
		return []ratioSpec{debtSpec, interestIncomeSpec, receivablesSpec}
	}
	return []ratioSpec{debtSpec, securitiesSpec, haramRevenueSpec}
}

// Evaluate runs the financial-ratio screen of cfg's battery. A ratio whose
// inputs are missing is reported as nil with a warning and never counts as a
// violation. Every violation is collected; Reason is the first in battery order.
func Evaluate(p *model.CompanyProfile, cfg standard.Config) model.FinancialResult {
	res := model.FinancialResult{Battery: string(cfg.Battery)}

	for _, spec := range battery(cfg.Battery) {
		limit, _ := cfg.Thresholds.Get(spec.key)
		r := model.Ratio{Name: spec.name, Label: spec.label, Limit: round(limit*100, 2)}

		v, ok, warning := spec.compute(p)
		if !ok {
			res.Warnings = append(res.Warnings, warning)
			res.Ratios = append(res.Ratios, r)
			continue
		}
		pct := round(v*100, spec.digits)
		r.Value = &pct
		if v > limit {
			r.Violated = true
			res.Violations = append(res.Violations, fmt.Sprintf(spec.failFmt, v*100, limit*100))
		}
		res.Ratios = append(res.Ratios, r)
	}

	if len(res.Violations) > 0 {
		res.Verdict = model.VerdictFail
		res.Reason = res.Violations[0]
		return res
	}
	res.Verdict = model.VerdictPass
	res.Reason = fmt.Sprintf("All financial ratios within %s limits", cfg.DisplayName())
	return res
}

func round(v float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(v*p) / p
}
