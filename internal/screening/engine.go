// Package screening is the decision core: business-activity classification,
// the financial-ratio battery, purification, and the verdict combiner.
package screening

import (
	"errors"
	"strings"
	"time"

	"HalalScreener/internal/model"
	"HalalScreener/internal/standard"

	"github.com/rs/zerolog"
)

// Combine reduces the two screen verdicts to the overall verdict and the
// tri-state compliance flag. A failing screen dominates a questionable one,
// and nil-ratio warnings never make a result questionable.
func Combine(biz model.BusinessResult, fin model.FinancialResult) (model.Overall, *bool) {
	switch {
	case biz.Verdict == model.VerdictFail || fin.Verdict == model.VerdictFail:
		return model.OverallNonCompliant, boolPtr(false)
	case biz.Verdict == model.VerdictQuestionable:
		return model.OverallQuestionable, nil
	default:
		return model.OverallCompliant, boolPtr(true)
	}
}

// Engine screens company profiles against a standard configuration.
type Engine struct {
	rules *RuleSet
	now   func() time.Time
	log   zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRules replaces the business-activity rule set.
func WithRules(rs *RuleSet) EngineOption {
	return func(e *Engine) { e.rules = rs }
}

// WithClock sets the source of the screened_at audit timestamp.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine using DefaultRules.
func NewEngine(log zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		rules: DefaultRules,
		now:   time.Now,
		log:   log.With().Str("component", "screening_engine").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Screen runs the three independent computations on p and combines them.
// A nil profile is treated as unavailable data.
func (e *Engine) Screen(p *model.CompanyProfile, cfg standard.Config) model.ScreeningResult {
	if p == nil {
		return e.Errored("", model.ErrDataUnavailable, cfg)
	}

	biz := e.rules.Classify(p)
	fin := Evaluate(p, cfg)
	pur := Purify(p)
	overall, compliant := Combine(biz, fin)

	e.log.Debug().
		Str("ticker", p.Ticker).
		Str("overall", string(overall)).
		Str("business", string(biz.Verdict)).
		Str("financial", string(fin.Verdict)).
		Float64("purification_pct", pur.Pct).
		Msg("screened")

	return model.ScreeningResult{
		Ticker:        p.Ticker,
		Name:          orDefault(p.Name, p.Ticker),
		Sector:        orDefault(p.Sector, "N/A"),
		Industry:      orDefault(p.Industry, "N/A"),
		Country:       orDefault(p.Country, "N/A"),
		MarketCap:     FormatMarketCap(p.MarketCap),
		MarketCapRaw:  p.MarketCap,
		Price:         p.Price,
		PERatio:       p.PERatio,
		DividendYield: round(p.DividendYield*100, 2),
		Overall:       overall,
		Compliant:     compliant,
		Business:      biz,
		Financial:     fin,
		Purification:  pur,
		Standard:      string(cfg.Standard),
		Methodology:   cfg.Methodology(),
		ScreenedAt:    e.now(),
	}
}

// Errored builds the ERROR result for a ticker whose profile could not be
// obtained. The upstream message is kept verbatim.
func (e *Engine) Errored(ticker string, err error, cfg standard.Config) model.ScreeningResult {
	msg := model.ErrDataUnavailable.Error()
	if err != nil {
		msg = err.Error()
	}
	var de *model.DataError
	if errors.As(err, &de) && ticker == "" {
		ticker = de.Ticker
	}
	return model.ScreeningResult{
		Ticker:      ticker,
		Name:        ticker,
		Sector:      "N/A",
		Industry:    "N/A",
		Country:     "N/A",
		MarketCap:   "N/A",
		Overall:     model.OverallError,
		Compliant:   boolPtr(false),
		Standard:    string(cfg.Standard),
		Methodology: cfg.Methodology(),
		Error:       msg,
		ScreenedAt:  e.now(),
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func boolPtr(b bool) *bool { return &b }
