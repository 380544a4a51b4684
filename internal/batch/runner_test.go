package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"HalalScreener/internal/collector"
	"HalalScreener/internal/model"
	"HalalScreener/internal/screening"
	"HalalScreener/internal/standard"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *standard.Registry {
	t.Helper()
	reg, err := standard.NewRegistry(standard.Request{Standard: standard.AAOIFI})
	require.NoError(t, err)
	return reg
}

func newRunner(t *testing.T, f collector.Fetcher, opts ...Option) (*Runner, *standard.Registry) {
	t.Helper()
	reg := newRegistry(t)
	return NewRunner(f, reg, screening.NewEngine(zerolog.Nop()), zerolog.Nop(), opts...), reg
}

func tickersOf(results []model.ScreeningResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Ticker
	}
	return out
}

// gateFetcher blocks on SLOW until ctx is cancelled or release is closed.
type gateFetcher struct {
	*collector.MockFetcher
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateFetcher() *gateFetcher {
	return &gateFetcher{
		MockFetcher: collector.NewMockFetcher(collector.SampleProfiles()...),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
}

func (g *gateFetcher) FetchProfile(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	if ticker != "SLOW" {
		return g.MockFetcher.FetchProfile(ctx, ticker)
	}
	g.once.Do(func() { close(g.started) })
	select {
	case <-ctx.Done():
		return nil, &model.DataError{Ticker: ticker, Err: ctx.Err()}
	case <-g.release:
		return &model.CompanyProfile{Ticker: ticker, Sector: "Technology", MarketCap: model.Float(100)}, nil
	}
}

func TestRun_SortsByVerdict(t *testing.T) {
	r, _ := newRunner(t, collector.NewMockFetcher(collector.SampleProfiles()...), WithWorkers(3))

	report, err := r.Run(context.Background(), []string{"JPM", "MAR", "AAPL", "ZZZZ", "MSFT", "BUD"})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT", "MAR", "JPM", "BUD", "ZZZZ"}, tickersOf(report.Results))
	assert.Equal(t, model.OverallError, report.Results[5].Overall)
	assert.Equal(t, "no data for ticker ZZZZ", report.Results[5].Error)
	assert.Empty(t, report.Skipped)
	assert.False(t, report.Cancelled())

	s := report.Summary
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 2, s.Compliant)
	assert.Equal(t, 1, s.Questionable)
	assert.Equal(t, 2, s.NonCompliant)
	assert.Equal(t, 1, s.Errors)
	require.NotNil(t, s.MeanDebtRatio)

	assert.Equal(t, "AAOIFI Shariah Standard", report.Methodology)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestRun_NormalizesInput(t *testing.T) {
	m := collector.NewMockFetcher(collector.SampleProfiles()...)
	r, _ := newRunner(t, m)

	report, err := r.Run(context.Background(), []string{"aapl", " AAPL ", "", "msft"})
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, report.Requested)
	assert.Len(t, report.Results, 2)
	assert.Equal(t, 1, m.CallCount("AAPL"))
}

func TestRun_Limits(t *testing.T) {
	r, _ := newRunner(t, collector.NewMockFetcher(), WithMaxTickers(3))

	_, err := r.Run(context.Background(), []string{" ", ""})
	assert.ErrorIs(t, err, ErrNoTickers)

	_, err = r.Run(context.Background(), []string{"A", "B", "C", "D"})
	assert.ErrorIs(t, err, ErrTooManyTickers)
	assert.Contains(t, err.Error(), "4 requested, limit is 3")

	// Duplicates do not count toward the cap.
	report, err := r.Run(context.Background(), []string{"A", "B", "C", "a", "b"})
	require.NoError(t, err)
	assert.Len(t, report.Results, 3)
}

func TestRun_DefaultCap(t *testing.T) {
	r, _ := newRunner(t, collector.NewMockFetcher())
	assert.Equal(t, DefaultMaxTickers, r.MaxTickers())

	tickers := make([]string, DefaultMaxTickers+1)
	for i := range tickers {
		tickers[i] = fmt.Sprintf("T%02d", i)
	}
	_, err := r.Run(context.Background(), tickers)
	assert.ErrorIs(t, err, ErrTooManyTickers)

	report, err := r.Run(context.Background(), tickers[:DefaultMaxTickers])
	require.NoError(t, err)
	assert.Len(t, report.Results, DefaultMaxTickers)
}

func TestRun_PinsStandard(t *testing.T) {
	g := newGateFetcher()
	r, reg := newRunner(t, g)

	done := make(chan *Report)
	go func() {
		report, err := r.Run(context.Background(), []string{"AAPL", "SLOW"})
		assert.NoError(t, err)
		done <- report
	}()

	<-g.started
	_, err := reg.Apply(standard.Request{Standard: standard.DowJones})
	assert.ErrorIs(t, err, standard.ErrBatchInFlight)
	assert.Equal(t, standard.AAOIFI, reg.Current().Standard)

	close(g.release)
	report := <-done
	assert.Equal(t, standard.AAOIFI, report.Standard.Standard)
	for _, res := range report.Results {
		assert.Equal(t, "aaoifi", res.Standard)
	}

	_, err = reg.Apply(standard.Request{Standard: standard.DowJones})
	assert.NoError(t, err)
	assert.Zero(t, reg.InFlight())
}

func TestRun_Cancellation(t *testing.T) {
	g := newGateFetcher()
	r, reg := newRunner(t, g, WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan *Report)
	go func() {
		report, err := r.Run(ctx, []string{"AAPL", "SLOW", "MSFT"})
		assert.NoError(t, err)
		done <- report
	}()

	<-g.started
	cancel()

	select {
	case report := <-done:
		assert.Equal(t, []string{"AAPL"}, tickersOf(report.Results))
		assert.Equal(t, []string{"SLOW", "MSFT"}, report.Skipped)
		assert.True(t, report.Cancelled())
		assert.Equal(t, 1, report.Summary.Total)
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not stop after cancellation")
	}
	assert.Zero(t, g.CallCount("MSFT"))
	assert.Zero(t, reg.InFlight())
}

type recordingSink struct {
	mu      sync.Mutex
	reports []*Report
	err     error
}

func (s *recordingSink) RecordRun(ctx context.Context, report *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	return s.err
}

func TestRun_Sink(t *testing.T) {
	sink := &recordingSink{}
	r, _ := newRunner(t, collector.NewMockFetcher(collector.SampleProfiles()...),
		WithSink(sink), WithIDGenerator(func() string { return "run-1" }))

	report, err := r.Run(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, sink.reports, 1)
	assert.Same(t, report, sink.reports[0])

	sink.err = errors.New("disk full")
	_, err = r.Run(context.Background(), []string{"MSFT"})
	assert.NoError(t, err, "sink failures do not fail the batch")
}

func TestRun_ConcurrentWorkers(t *testing.T) {
	profiles := make([]*model.CompanyProfile, 0, 30)
	tickers := make([]string, 0, 30)
	for i := 0; i < 30; i++ {
		tk := fmt.Sprintf("T%02d", i)
		tickers = append(tickers, tk)
		profiles = append(profiles, &model.CompanyProfile{
			Ticker:    tk,
			Sector:    "Technology",
			MarketCap: model.Float(100),
			TotalDebt: float64(i * 2),
		})
	}
	r, _ := newRunner(t, collector.NewMockFetcher(profiles...), WithWorkers(8))

	report, err := r.Run(context.Background(), tickers)
	require.NoError(t, err)
	require.Len(t, report.Results, 30)

	// T00..T15 have debt <= 30% and stay in input order ahead of the failures.
	got := tickersOf(report.Results)
	assert.Equal(t, tickers[:16], got[:16])
	assert.Equal(t, tickers[16:], got[16:])
	assert.Equal(t, 16, report.Summary.Compliant)
	assert.Equal(t, 14, report.Summary.NonCompliant)
}

func TestScreenOne(t *testing.T) {
	r, _ := newRunner(t, collector.NewMockFetcher(collector.SampleProfiles()...))

	res, err := r.ScreenOne(context.Background(), "bud")
	require.NoError(t, err)
	assert.Equal(t, "BUD", res.Ticker)
	assert.Equal(t, model.OverallNonCompliant, res.Overall)

	_, err = r.ScreenOne(context.Background(), " ")
	assert.ErrorIs(t, err, ErrNoTickers)
}
