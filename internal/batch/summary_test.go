package batch

import (
	"testing"

	"HalalScreener/internal/model"
	"HalalScreener/internal/screening"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(ticker string, overall model.Overall, purify float64, debt *float64) model.ScreeningResult {
	return model.ScreeningResult{
		Ticker:       ticker,
		Overall:      overall,
		Purification: model.Purification{Pct: purify},
		Financial: model.FinancialResult{
			Ratios: []model.Ratio{{Name: screening.RatioDebt, Value: debt}},
		},
	}
}

func TestSummarize(t *testing.T) {
	results := []model.ScreeningResult{
		result("A", model.OverallCompliant, 3, model.Float(10)),
		result("B", model.OverallNonCompliant, 10, model.Float(20)),
		result("C", model.OverallQuestionable, 1, nil),
		result("D", model.OverallCompliant, 2, nil),
		result("E", model.OverallError, 99, model.Float(90)),
	}
	s := Summarize(results)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Compliant)
	assert.Equal(t, 1, s.Questionable)
	assert.Equal(t, 1, s.NonCompliant)
	assert.Equal(t, 1, s.Errors)
	assert.InDelta(t, 4.0, s.MeanPurification, 1e-9)
	assert.InDelta(t, 2.0, s.MedianPurification, 1e-9)
	require.NotNil(t, s.MeanDebtRatio)
	assert.InDelta(t, 15.0, *s.MeanDebtRatio, 1e-9)

	// Summarize must not reorder its input.
	assert.Equal(t, "A", results[0].Ticker)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.MeanPurification)
	assert.Nil(t, s.MeanDebtRatio)

	s = Summarize([]model.ScreeningResult{result("X", model.OverallError, 0, nil)})
	assert.Equal(t, 1, s.Errors)
	assert.Nil(t, s.MeanDebtRatio)
}

func TestSortResults_Stable(t *testing.T) {
	results := []model.ScreeningResult{
		result("E1", model.OverallError, 0, nil),
		result("N1", model.OverallNonCompliant, 0, nil),
		result("C1", model.OverallCompliant, 0, nil),
		result("Q1", model.OverallQuestionable, 0, nil),
		result("C2", model.OverallCompliant, 0, nil),
		result("N2", model.OverallNonCompliant, 0, nil),
	}
	SortResults(results)
	assert.Equal(t, []string{"C1", "C2", "Q1", "N1", "N2", "E1"}, tickersOf(results))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "BRK.B"}, Normalize([]string{" aapl", "MSFT", "aapl ", "", "brk.b"}))
	assert.Empty(t, Normalize(nil))
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, ParseTickers("aapl, msft  goog;AAPL"))
}
