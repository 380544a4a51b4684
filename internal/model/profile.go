package model

import "time"

// CompanyProfile is the fundamentals record a single screening call consumes.
// Optional numeric attributes are pointers; nil means the provider did not supply them.
type CompanyProfile struct {
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
	Country     string `json:"country"`

	MarketCap *float64 `json:"market_cap"`
	Price     *float64 `json:"price"`

	// Balance sheet. Absent debt and cash are reported as 0 by the fetcher.
	TotalDebt      float64  `json:"total_debt"`
	TotalCash      float64  `json:"total_cash"`
	NetReceivables *float64 `json:"net_receivables"`
	TotalAssets    *float64 `json:"total_assets"`

	// Income statement. InterestExpense is the proxy for impermissible income.
	TotalRevenue    *float64 `json:"total_revenue"`
	InterestExpense float64  `json:"interest_expense"`

	// Informational only.
	PERatio       *float64 `json:"pe_ratio"`
	DividendYield float64  `json:"dividend_yield"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Float returns a pointer to v, for building profiles with optional fields.
func Float(v float64) *float64 { return &v }

// Positive reports whether v is present and strictly positive.
func Positive(v *float64) bool { return v != nil && *v > 0 }
