// Package batch screens portfolios of tickers concurrently against one pinned
// standard configuration.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HalalScreener/internal/collector"
	"HalalScreener/internal/model"
	"HalalScreener/internal/screening"
	"HalalScreener/internal/standard"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultWorkers is the worker pool size.
	DefaultWorkers = 8
	// DefaultMaxTickers caps a single batch.
	DefaultMaxTickers = 30
)

var (
	// ErrNoTickers is returned when nothing is left after normalization.
	ErrNoTickers = errors.New("no tickers given")
	// ErrTooManyTickers is returned when a batch exceeds the configured cap.
	ErrTooManyTickers = errors.New("too many tickers")
)

// Sink receives every finished batch, e.g. a recorder.
type Sink interface {
	RecordRun(ctx context.Context, report *Report) error
}

// Report is the outcome of one batch.
type Report struct {
	RunID       string                  `json:"run_id"`
	Standard    standard.Config         `json:"standard"`
	Methodology string                  `json:"methodology"`
	StartedAt   time.Time               `json:"started_at"`
	FinishedAt  time.Time               `json:"finished_at"`
	Requested   []string                `json:"requested"`
	Results     []model.ScreeningResult `json:"results"`
	Skipped     []string                `json:"skipped,omitempty"`
	Summary     Summary                 `json:"summary"`
}

// Cancelled reports whether any requested ticker was skipped.
func (r *Report) Cancelled() bool { return len(r.Skipped) > 0 }

// Runner screens batches of tickers.
type Runner struct {
	fetcher    collector.Fetcher
	registry   *standard.Registry
	engine     *screening.Engine
	workers    int
	maxTickers int
	sink       Sink
	log        zerolog.Logger
	newID      func() string
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMaxTickers sets the per-batch cap.
func WithMaxTickers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxTickers = n
		}
	}
}

// WithSink registers a receiver for finished batches. Sink errors are logged.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithIDGenerator replaces the uuid run identifier source.
func WithIDGenerator(fn func() string) Option {
	return func(r *Runner) { r.newID = fn }
}

// NewRunner creates a Runner.
func NewRunner(f collector.Fetcher, reg *standard.Registry, eng *screening.Engine, log zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		fetcher:    f,
		registry:   reg,
		engine:     eng,
		workers:    DefaultWorkers,
		maxTickers: DefaultMaxTickers,
		log:        log.With().Str("component", "batch_runner").Logger(),
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxTickers is the per-batch cap.
func (r *Runner) MaxTickers() int { return r.maxTickers }

// Run screens tickers. The active standard is pinned for the whole batch and
// cannot be switched until Run returns. Cancelling ctx skips tickers that
// have not completed; they are listed in Report.Skipped.
func (r *Runner) Run(ctx context.Context, tickers []string) (*Report, error) {
	list := Normalize(tickers)
	if len(list) == 0 {
		return nil, ErrNoTickers
	}
	if len(list) > r.maxTickers {
		return nil, fmt.Errorf("%w: %d requested, limit is %d", ErrTooManyTickers, len(list), r.maxTickers)
	}

	cfg, release := r.registry.Begin()
	defer release()

	report := &Report{
		RunID:       r.newID(),
		Standard:    cfg,
		Methodology: cfg.Methodology(),
		StartedAt:   r.now(),
		Requested:   list,
	}

	items := newPool(r.workers).run(ctx, list, func(ctx context.Context, ticker string) (model.ScreeningResult, bool) {
		return r.screen(ctx, ticker, cfg)
	})

	report.Results = make([]model.ScreeningResult, 0, len(items))
	for i, it := range items {
		if !it.ok {
			report.Skipped = append(report.Skipped, list[i])
			continue
		}
		report.Results = append(report.Results, it.result)
	}
	SortResults(report.Results)
	report.Summary = Summarize(report.Results)
	report.FinishedAt = r.now()

	r.log.Info().
		Str("run_id", report.RunID).
		Str("standard", string(cfg.Standard)).
		Str("battery", string(cfg.Battery)).
		Int("tickers", len(list)).
		Int("compliant", report.Summary.Compliant).
		Int("questionable", report.Summary.Questionable).
		Int("non_compliant", report.Summary.NonCompliant).
		Int("errors", report.Summary.Errors).
		Int("skipped", len(report.Skipped)).
		Dur("took", report.FinishedAt.Sub(report.StartedAt)).
		Msg("batch screened")

	if r.sink != nil && len(report.Results) > 0 {
		// The sink is called even when ctx was cancelled so partial runs are kept.
		if err := r.sink.RecordRun(context.WithoutCancel(ctx), report); err != nil {
			r.log.Error().Err(err).Str("run_id", report.RunID).Msg("record run failed")
		}
	}
	return report, nil
}

// ScreenOne screens a single ticker as a one-element batch.
func (r *Runner) ScreenOne(ctx context.Context, ticker string) (model.ScreeningResult, error) {
	report, err := r.Run(ctx, []string{ticker})
	if err != nil {
		return model.ScreeningResult{}, err
	}
	if len(report.Results) == 0 {
		if err := ctx.Err(); err != nil {
			return model.ScreeningResult{}, err
		}
		return model.ScreeningResult{}, context.Canceled
	}
	return report.Results[0], nil
}

func (r *Runner) screen(ctx context.Context, ticker string, cfg standard.Config) (model.ScreeningResult, bool) {
	p, err := r.fetcher.FetchProfile(ctx, ticker)
	if err != nil {
		if ctx.Err() != nil {
			return model.ScreeningResult{}, false
		}
		r.log.Warn().Str("ticker", ticker).Str("provider", r.fetcher.Name()).Err(err).Msg("profile unavailable")
		return r.engine.Errored(ticker, err, cfg), true
	}
	if p.Ticker == "" {
		p.Ticker = ticker
	}
	return r.engine.Screen(p, cfg), true
}
