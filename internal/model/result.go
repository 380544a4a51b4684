package model

import "time"

// BusinessResult is the business-activity screen outcome.
type BusinessResult struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
	Detail  string  `json:"detail,omitempty"`
	// Match is the category or sector name that decided the verdict; empty on pass.
	Match string `json:"match,omitempty"`
}

// Ratio is one computed entry of a ratio battery, expressed in percent.
type Ratio struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Value    *float64 `json:"value"`
	Limit    float64  `json:"limit"`
	Violated bool     `json:"violated"`
}

// FinancialResult is the financial-ratio screen outcome.
type FinancialResult struct {
	Verdict    Verdict  `json:"verdict"`
	Reason     string   `json:"reason"`
	Battery    string   `json:"battery"`
	Ratios     []Ratio  `json:"ratios"`
	Violations []string `json:"violations,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Ratio returns the computed percentage of the named ratio, or nil if it was
// not computed or is not part of the battery.
func (f FinancialResult) Ratio(name string) *float64 {
	for _, r := range f.Ratios {
		if r.Name == name {
			return r.Value
		}
	}
	return nil
}

// RatioAt returns the percentage at position i of the battery, or nil.
func (f FinancialResult) RatioAt(i int) *float64 {
	if i < 0 || i >= len(f.Ratios) {
		return nil
	}
	return f.Ratios[i].Value
}

// RatioMap returns the ratios keyed by name.
func (f FinancialResult) RatioMap() map[string]*float64 {
	m := make(map[string]*float64, len(f.Ratios))
	for _, r := range f.Ratios {
		m[r.Name] = r.Value
	}
	return m
}

// Purification is the charitable-donation share of returns.
type Purification struct {
	Pct  float64 `json:"purification_pct"`
	Note string  `json:"note"`
}

// ScreeningResult is the value produced by one screening call. It is built once
// and never edited afterwards.
type ScreeningResult struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	Sector        string   `json:"sector"`
	Industry      string   `json:"industry"`
	Country       string   `json:"country"`
	MarketCap     string   `json:"market_cap"`
	MarketCapRaw  *float64 `json:"market_cap_raw"`
	Price         *float64 `json:"price"`
	PERatio       *float64 `json:"pe_ratio"`
	DividendYield float64  `json:"dividend_yield"`

	Overall   Overall `json:"overall"`
	Compliant *bool   `json:"compliant"`

	Business     BusinessResult  `json:"business"`
	Financial    FinancialResult `json:"financial"`
	Purification Purification    `json:"purification"`

	Standard    string `json:"standard"`
	Methodology string `json:"methodology"`
	Error       string `json:"error,omitempty"`

	ScreenedAt time.Time `json:"screened_at"`
}

// CompliantLabel renders the tri-state compliance flag.
func (r *ScreeningResult) CompliantLabel() string {
	if r.Compliant == nil {
		return "null"
	}
	if *r.Compliant {
		return "true"
	}
	return "false"
}
