package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"HalalScreener/internal/batch"
	"HalalScreener/internal/collector"
	"HalalScreener/internal/model"
	"HalalScreener/internal/recorder"
	"HalalScreener/internal/screening"
	"HalalScreener/internal/standard"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv      *Server
	registry *standard.Registry
	recorder *recorder.SQLiteRecorder
}

func newFixture(t *testing.T, f collector.Fetcher) *fixture {
	t.Helper()
	reg, err := standard.NewRegistry(standard.Request{Standard: standard.AAOIFI})
	require.NoError(t, err)

	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rec.Close() })

	runner := batch.NewRunner(f, reg, screening.NewEngine(zerolog.Nop()), zerolog.Nop(),
		batch.WithWorkers(2), batch.WithMaxTickers(5), batch.WithSink(rec))

	srv := New(Config{
		Addr:     ":0",
		Log:      zerolog.Nop(),
		Runner:   runner,
		Registry: reg,
		Recorder: rec,
		DevMode:  true,
	})
	return &fixture{srv: srv, registry: reg, recorder: rec}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func sampleFetcher() *collector.MockFetcher {
	return collector.NewMockFetcher(collector.SampleProfiles()...)
}

func TestHealth(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]any
	decode(t, rr, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "aaoifi", body["standard"])
	assert.EqualValues(t, 0, body["batches_running"])
}

func TestGetStandard(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodGet, "/api/standard", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Standard    string             `json:"standard"`
		Battery     string             `json:"battery"`
		Methodology string             `json:"methodology"`
		Thresholds  map[string]float64 `json:"thresholds"`
	}
	decode(t, rr, &body)
	assert.Equal(t, "aaoifi", body.Standard)
	assert.Equal(t, "aaoifi", body.Battery)
	assert.Equal(t, "AAOIFI Shariah Standard", body.Methodology)
	assert.InDelta(t, 0.30, body.Thresholds[standard.KeyDebt], 1e-9)
}

func TestPutStandard(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodPut, "/api/standard", map[string]any{
		"standard": "Dow Jones Islamic",
		"battery":  "legacy",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	cfg := f.registry.Current()
	assert.Equal(t, standard.DowJones, cfg.Standard)
	assert.Equal(t, standard.BatteryLegacy, cfg.Battery)
	assert.InDelta(t, 0.33, cfg.Thresholds.MaxDebtToMarketCap, 1e-9)
}

func TestPutStandard_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"unknown standard", map[string]any{"standard": "hanafi"}, "standard"},
		{"unknown battery", map[string]any{"standard": "aaoifi", "battery": "four"}, "battery"},
		{"threshold out of range", map[string]any{
			"standard":  "custom",
			"overrides": map[string]float64{standard.KeyDebt: 1.5},
		}, standard.KeyDebt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, sampleFetcher())
			before := f.registry.Current()

			rr := f.do(t, http.MethodPut, "/api/standard", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())

			var body map[string]string
			decode(t, rr, &body)
			assert.Equal(t, tt.field, body["field"])
			assert.Contains(t, body["error"], "invalid configuration")
			assert.Equal(t, before, f.registry.Current())
		})
	}
}

func TestPutStandard_MalformedJSON(t *testing.T) {
	f := newFixture(t, sampleFetcher())
	rr := f.do(t, http.MethodPut, "/api/standard", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestScreenBatch(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodPost, "/api/screen", map[string]any{
		"tickers": []string{"jpm", "AAPL", "MAR", "aapl"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var report batch.Report
	decode(t, rr, &report)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "AAPL", report.Results[0].Ticker)
	assert.Equal(t, model.OverallCompliant, report.Results[0].Overall)
	assert.Equal(t, model.OverallQuestionable, report.Results[1].Overall)
	assert.Equal(t, model.OverallNonCompliant, report.Results[2].Overall)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, "AAOIFI Shariah Standard", report.Methodology)
}

func TestScreenBatch_BadRequests(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodPost, "/api/screen", map[string]any{"tickers": []string{" ", ""}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodPost, "/api/screen", map[string]any{
		"tickers": []string{"A", "B", "C", "D", "E", "F"},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "6 requested, limit is 5")

	rr = f.do(t, http.MethodPost, "/api/screen", "[]")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestScreenTicker(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodGet, "/api/screen/bud", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var res model.ScreeningResult
	decode(t, rr, &res)
	assert.Equal(t, "BUD", res.Ticker)
	assert.Equal(t, model.OverallNonCompliant, res.Overall)
	assert.Equal(t, model.VerdictFail, res.Business.Verdict)
}

func TestScreenTicker_UnknownIsErrorResult(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodGet, "/api/screen/NOPE", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var res model.ScreeningResult
	decode(t, rr, &res)
	assert.Equal(t, model.OverallError, res.Overall)
	assert.Equal(t, "no data for ticker NOPE", res.Error)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodGet, "/api/export?tickers=AAPL,JPM&format=csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "halal_screening_")
	assert.True(t, strings.HasSuffix(rr.Header().Get("Content-Disposition"), `.csv"`))

	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ticker", rows[0][0])
	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "JPM", rows[2][0])
}

func TestExportJSON(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	rr := f.do(t, http.MethodGet, "/api/export?tickers=MSFT&format=json", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var results []model.ScreeningResult
	decode(t, rr, &results)
	require.Len(t, results, 1)
	assert.Equal(t, "MSFT", results[0].Ticker)
}

func TestExport_BadFormat(t *testing.T) {
	f := newFixture(t, sampleFetcher())
	rr := f.do(t, http.MethodGet, "/api/export?tickers=MSFT&format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHistory(t *testing.T) {
	f := newFixture(t, sampleFetcher())

	for i := 0; i < 2; i++ {
		rr := f.do(t, http.MethodGet, "/api/screen/AAPL", nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := f.do(t, http.MethodGet, "/api/history/aapl?limit=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var entries []recorder.HistoryEntry
	decode(t, rr, &entries)
	require.Len(t, entries, 2)
	assert.Equal(t, "AAPL", entries[0].Ticker)
	assert.Equal(t, model.OverallCompliant, entries[0].Overall)

	rr = f.do(t, http.MethodGet, "/api/history/AAPL?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// slowFetcher blocks on SLOW until release is closed.
type slowFetcher struct {
	*collector.MockFetcher
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowFetcher) FetchProfile(ctx context.Context, ticker string) (*model.CompanyProfile, error) {
	if ticker == "SLOW" {
		s.once.Do(func() { close(s.started) })
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, &model.DataError{Ticker: ticker, Err: ctx.Err()}
		}
	}
	return s.MockFetcher.FetchProfile(ctx, ticker)
}

func TestPutStandard_ConflictWhileBatchRuns(t *testing.T) {
	sf := &slowFetcher{
		MockFetcher: sampleFetcher(),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	f := newFixture(t, sf)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- f.do(t, http.MethodPost, "/api/screen", map[string]any{"tickers": []string{"SLOW", "AAPL"}})
	}()
	<-sf.started

	rr := f.do(t, http.MethodPut, "/api/standard", map[string]any{"standard": "sp_shariah"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	close(sf.release)
	batchRR := <-done
	require.Equal(t, http.StatusOK, batchRR.Code)

	var report batch.Report
	decode(t, batchRR, &report)
	assert.Equal(t, standard.AAOIFI, report.Standard.Standard)
	assert.Equal(t, standard.AAOIFI, f.registry.Current().Standard)
}
