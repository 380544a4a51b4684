package batch

import (
	"sort"

	"HalalScreener/internal/model"
	"HalalScreener/internal/screening"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a batch. Purification and debt statistics cover
// successfully screened tickers only; MeanDebtRatio also skips null ratios.
type Summary struct {
	Total        int `json:"total"`
	Compliant    int `json:"compliant"`
	Questionable int `json:"questionable"`
	NonCompliant int `json:"non_compliant"`
	Errors       int `json:"errors"`

	MeanPurification   float64  `json:"mean_purification_pct"`
	MedianPurification float64  `json:"median_purification_pct"`
	MeanDebtRatio      *float64 `json:"mean_debt_ratio_pct"`
}

// Summarize counts verdicts and computes the purification and debt statistics.
func Summarize(results []model.ScreeningResult) Summary {
	s := Summary{Total: len(results)}
	var purification, debt []float64

	for i := range results {
		r := &results[i]
		switch r.Overall {
		case model.OverallCompliant:
			s.Compliant++
		case model.OverallQuestionable:
			s.Questionable++
		case model.OverallNonCompliant:
			s.NonCompliant++
		default:
			s.Errors++
			continue
		}
		purification = append(purification, r.Purification.Pct)
		if v := r.Financial.Ratio(screening.RatioDebt); v != nil {
			debt = append(debt, *v)
		}
	}

	if len(purification) > 0 {
		s.MeanPurification = stat.Mean(purification, nil)
		sort.Float64s(purification)
		// Empirical quantile: the lower middle value for even counts.
		s.MedianPurification = stat.Quantile(0.5, stat.Empirical, purification, nil)
	}
	if len(debt) > 0 {
		m := stat.Mean(debt, nil)
		s.MeanDebtRatio = &m
	}
	return s
}

// SortResults orders results COMPLIANT, QUESTIONABLE, NON_COMPLIANT, ERROR,
// keeping input order within a verdict.
func SortResults(results []model.ScreeningResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Overall.Rank() < results[j].Overall.Rank()
	})
}
