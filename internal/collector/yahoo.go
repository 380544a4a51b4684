package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"HalalScreener/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultYahooBaseURL is the Yahoo Finance query host.
	DefaultYahooBaseURL = "https://query2.finance.yahoo.com"
	// DefaultTimeout is the per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultRateLimit is requests per second against Yahoo.
	DefaultRateLimit = 4
)

var yahooModules = strings.Join([]string{
	"assetProfile",
	"price",
	"financialData",
	"summaryDetail",
	"incomeStatementHistory",
	"balanceSheetHistory",
}, ",")

// YahooFetcher implements Fetcher using the Yahoo Finance quoteSummary API.
type YahooFetcher struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	log     zerolog.Logger
	now     func() time.Time
}

// YahooOption configures a YahooFetcher.
type YahooOption func(*YahooFetcher)

// WithBaseURL points the fetcher at another host, e.g. an httptest server.
func WithBaseURL(u string) YahooOption {
	return func(f *YahooFetcher) { f.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the HTTP client, including its proxy transport.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(f *YahooFetcher) { f.client = c }
}

// WithRateLimit sets the request rate. Zero or less disables limiting.
func WithRateLimit(requestsPerSecond int) YahooOption {
	return func(f *YahooFetcher) {
		if requestsPerSecond <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) YahooOption {
	return func(f *YahooFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) YahooOption {
	return func(f *YahooFetcher) { f.log = log.With().Str("component", "yahoo_fetcher").Logger() }
}

// NewYahooFetcher creates a Yahoo fetcher. proxyURL may be empty.
func NewYahooFetcher(proxyURL string, opts ...YahooOption) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	f := &YahooFetcher{
		baseURL: DefaultYahooBaseURL,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yValue is Yahoo's {"raw": 1.0, "fmt": "1.00"} number wrapper. Missing
// numbers arrive as {} and decode to a nil Raw.
type yValue struct {
	Raw *float64 `json:"raw"`
}

func (v yValue) or(def float64) float64 {
	if v.Raw == nil {
		return def
	}
	return *v.Raw
}

type quoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Sector              string `json:"sector"`
				Industry            string `json:"industry"`
				LongBusinessSummary string `json:"longBusinessSummary"`
				Country             string `json:"country"`
			} `json:"assetProfile"`
			Price struct {
				LongName           string `json:"longName"`
				ShortName          string `json:"shortName"`
				MarketCap          yValue `json:"marketCap"`
				RegularMarketPrice yValue `json:"regularMarketPrice"`
			} `json:"price"`
			FinancialData struct {
				CurrentPrice yValue `json:"currentPrice"`
				TotalDebt    yValue `json:"totalDebt"`
				TotalCash    yValue `json:"totalCash"`
				TotalRevenue yValue `json:"totalRevenue"`
			} `json:"financialData"`
			SummaryDetail struct {
				MarketCap     yValue `json:"marketCap"`
				TrailingPE    yValue `json:"trailingPE"`
				DividendYield yValue `json:"dividendYield"`
			} `json:"summaryDetail"`
			IncomeStatementHistory struct {
				Statements []struct {
					InterestExpense yValue `json:"interestExpense"`
					TotalRevenue    yValue `json:"totalRevenue"`
				} `json:"incomeStatementHistory"`
			} `json:"incomeStatementHistory"`
			BalanceSheetHistory struct {
				Statements []struct {
					NetReceivables yValue `json:"netReceivables"`
					TotalAssets    yValue `json:"totalAssets"`
				} `json:"balanceSheetStatements"`
			} `json:"balanceSheetHistory"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// FetchProfile downloads and maps the quoteSummary modules for ticker.
func (f *YahooFetcher) FetchProfile(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	p, err := f.fetch(ctx, ticker)
	if err != nil {
		f.log.Warn().Str("ticker", ticker).Err(err).Msg("fetch failed")
		return nil, &model.DataError{Ticker: ticker, Err: err}
	}
	return p, nil
}

func (f *YahooFetcher) fetch(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("yahoo rate limit: %w", err)
	}

	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.baseURL, url.PathEscape(ticker), url.QueryEscape(yahooModules))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	f.log.Debug().Str("ticker", ticker).Msg("quoteSummary request")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var qs quoteSummary
	decodeErr := json.Unmarshal(body, &qs)
	if decodeErr == nil && qs.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", qs.QuoteSummary.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, errors.New("yahoo: no data returned")
	}
	return f.mapProfile(ticker, &qs), nil
}

func (f *YahooFetcher) mapProfile(ticker string, qs *quoteSummary) *model.CompanyProfile {
	r := qs.QuoteSummary.Result[0]

	p := &model.CompanyProfile{
		Ticker:      ticker,
		Name:        firstNonEmpty(r.Price.LongName, r.Price.ShortName, ticker),
		Sector:      firstNonEmpty(r.AssetProfile.Sector, "N/A"),
		Industry:    firstNonEmpty(r.AssetProfile.Industry, "N/A"),
		Description: strings.ToLower(r.AssetProfile.LongBusinessSummary),
		Country:     firstNonEmpty(r.AssetProfile.Country, "N/A"),

		MarketCap:     firstValue(r.Price.MarketCap, r.SummaryDetail.MarketCap),
		Price:         firstValue(r.FinancialData.CurrentPrice, r.Price.RegularMarketPrice),
		TotalDebt:     r.FinancialData.TotalDebt.or(0),
		TotalCash:     r.FinancialData.TotalCash.or(0),
		PERatio:       r.SummaryDetail.TrailingPE.Raw,
		DividendYield: r.SummaryDetail.DividendYield.or(0),
		FetchedAt:     f.now(),
	}

	p.TotalRevenue = r.FinancialData.TotalRevenue.Raw
	if stmts := r.IncomeStatementHistory.Statements; len(stmts) > 0 {
		p.InterestExpense = math.Abs(stmts[0].InterestExpense.or(0))
		if p.TotalRevenue == nil {
			p.TotalRevenue = stmts[0].TotalRevenue.Raw
		}
	}
	if stmts := r.BalanceSheetHistory.Statements; len(stmts) > 0 {
		p.NetReceivables = stmts[0].NetReceivables.Raw
		p.TotalAssets = stmts[0].TotalAssets.Raw
	}
	return p
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstValue(vals ...yValue) *float64 {
	for _, v := range vals {
		if v.Raw != nil {
			return v.Raw
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
