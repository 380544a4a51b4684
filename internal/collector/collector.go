package collector

import (
	"context"
	"fmt"
	"sync"

	"HalalScreener/internal/model"
)

// MockFetcher serves fixed profiles for development and testing.
type MockFetcher struct {
	mu       sync.Mutex
	Profiles map[string]*model.CompanyProfile
	Errors   map[string]error
	// Calls counts FetchProfile invocations per ticker.
	Calls map[string]int
}

// NewMockFetcher creates a MockFetcher serving profiles keyed by ticker.
func NewMockFetcher(profiles ...*model.CompanyProfile) *MockFetcher {
	m := &MockFetcher{
		Profiles: make(map[string]*model.CompanyProfile, len(profiles)),
		Errors:   make(map[string]error),
		Calls:    make(map[string]int),
	}
	for _, p := range profiles {
		m.Profiles[p.Ticker] = p
	}
	return m
}

func (m *MockFetcher) Name() string { return "mock" }

// FetchProfile returns a copy of the stored profile, the configured error, or
// a DataError for unknown tickers.
func (m *MockFetcher) FetchProfile(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[ticker]++

	if err := ctx.Err(); err != nil {
		return nil, &model.DataError{Ticker: ticker, Err: err}
	}
	if err, ok := m.Errors[ticker]; ok {
		return nil, &model.DataError{Ticker: ticker, Err: err}
	}
	p, ok := m.Profiles[ticker]
	if !ok {
		return nil, &model.DataError{Ticker: ticker, Err: fmt.Errorf("no data for ticker %s", ticker)}
	}
	cp := *p
	return &cp, nil
}

// CallCount reports how many times ticker was fetched.
func (m *MockFetcher) CallCount(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls[ticker]
}

// SampleProfiles is a small offline catalogue used by the mock provider.
func SampleProfiles() []*model.CompanyProfile {
	return []*model.CompanyProfile{
		{
			Ticker:         "AAPL",
			Name:           "Apple Inc.",
			Sector:         "Technology",
			Industry:       "Consumer Electronics",
			Description:    "designs, manufactures and markets smartphones, personal computers and tablets",
			Country:        "United States",
			MarketCap:      model.Float(3.4e12),
			Price:          model.Float(225.5),
			TotalDebt:      1.01e11,
			TotalCash:      6.5e10,
			TotalRevenue:   model.Float(3.91e11),
			NetReceivables: model.Float(6.6e10),
			TotalAssets:    model.Float(3.65e11),
			PERatio:        model.Float(34.2),
			DividendYield:  0.0044,
		},
		{
			Ticker:          "MSFT",
			Name:            "Microsoft Corporation",
			Sector:          "Technology",
			Industry:        "Software—Infrastructure",
			Description:     "develops and supports software, services, devices and solutions",
			Country:         "United States",
			MarketCap:       model.Float(3.1e12),
			Price:           model.Float(415.2),
			TotalDebt:       9.7e10,
			TotalCash:       7.5e10,
			TotalRevenue:    model.Float(2.45e11),
			InterestExpense: 2.9e9,
			NetReceivables:  model.Float(5.6e10),
			TotalAssets:     model.Float(5.12e11),
			PERatio:         model.Float(35.1),
			DividendYield:   0.0072,
		},
		{
			Ticker:          "BUD",
			Name:            "Anheuser-Busch InBev SA/NV",
			Sector:          "Consumer Defensive",
			Industry:        "Beverages—Brewers",
			Description:     "produces, distributes and sells beer",
			Country:         "Belgium",
			MarketCap:       model.Float(1.2e11),
			Price:           model.Float(60.1),
			TotalDebt:       7.9e10,
			TotalCash:       1.1e10,
			TotalRevenue:    model.Float(5.9e10),
			InterestExpense: 4.2e9,
			PERatio:         model.Float(20.4),
			DividendYield:   0.014,
		},
		{
			Ticker:          "MAR",
			Name:            "Marriott International",
			Sector:          "Consumer Cyclical",
			Industry:        "Lodging",
			Description:     "operates and franchises hotel, residential and timeshare properties",
			Country:         "United States",
			MarketCap:       model.Float(7.2e10),
			Price:           model.Float(250.3),
			TotalDebt:       1.4e10,
			TotalCash:       3.1e8,
			TotalRevenue:    model.Float(2.5e10),
			InterestExpense: 6.9e8,
			PERatio:         model.Float(26.0),
			DividendYield:   0.01,
		},
		{
			Ticker:          "JPM",
			Name:            "JPMorgan Chase & Co.",
			Sector:          "Financial Services",
			Industry:        "Banks—Diversified",
			Description:     "provides investment banking, commercial banking and asset management",
			Country:         "United States",
			MarketCap:       model.Float(6.7e11),
			Price:           model.Float(235.0),
			TotalDebt:       5.4e11,
			TotalCash:       1.2e12,
			TotalRevenue:    model.Float(1.6e11),
			InterestExpense: 8.1e10,
			PERatio:         model.Float(12.9),
			DividendYield:   0.021,
		},
	}
}
