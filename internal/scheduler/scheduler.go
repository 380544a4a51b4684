// Package scheduler runs the cron-driven watchlist screen and answers chat commands.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"HalalScreener/internal/batch"
	"HalalScreener/internal/notifier"
	"HalalScreener/internal/standard"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Sender delivers a report, retrying on failure.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages the cron tasks and chat commands.
type Scheduler struct {
	cron      *cron.Cron
	runner    *batch.Runner
	registry  *standard.Registry
	sender    Sender
	watchlist []string
	presets   map[string][]string
	ctx       context.Context
	log       zerolog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithWatchlist sets the tickers screened by the cron job and /watchlist.
func WithWatchlist(tickers []string) Option {
	return func(s *Scheduler) { s.watchlist = batch.Normalize(tickers) }
}

// WithPresets sets the named ticker lists available to /preset.
func WithPresets(presets map[string][]string) Option {
	return func(s *Scheduler) {
		s.presets = make(map[string][]string, len(presets))
		for name, tickers := range presets {
			s.presets[strings.ToLower(name)] = batch.Normalize(tickers)
		}
	}
}

// NewScheduler creates a Scheduler. sender may be nil, in which case cron
// reports are only logged.
func NewScheduler(ctx context.Context, runner *batch.Runner, reg *standard.Registry, sender Sender, log zerolog.Logger, opts ...Option) *Scheduler {
	l := log.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: l}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner:   runner,
		registry: reg,
		sender:   sender,
		ctx:      ctx,
		log:      l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterAll registers the watchlist screen. An empty spec disables it.
func (s *Scheduler) RegisterAll(screenCron string) error {
	if screenCron == "" {
		s.log.Info().Msg("watchlist schedule disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(screenCron, s.watchlistTask); err != nil {
		return fmt.Errorf("register watchlist task: %w", err)
	}
	return nil
}

// Entries reports the number of registered cron jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunWatchlistNow screens the watchlist immediately (RUN_ON_START).
func (s *Scheduler) RunWatchlistNow() {
	s.watchlistTask()
}

func (s *Scheduler) watchlistTask() {
	s.log.Info().Int("tickers", len(s.watchlist)).Msg("running watchlist screen")
	for _, msg := range s.screenChunks(s.ctx, s.watchlist) {
		s.trySend(msg)
	}
}

// screenChunks screens tickers in batches no larger than the runner's cap and
// returns one formatted report per batch.
func (s *Scheduler) screenChunks(ctx context.Context, tickers []string) []string {
	if len(tickers) == 0 {
		return []string{"ℹ️ Watchlist is empty."}
	}
	size := s.runner.MaxTickers()
	var out []string
	for start := 0; start < len(tickers); start += size {
		end := min(start+size, len(tickers))
		report, err := s.runner.Run(ctx, tickers[start:end])
		if err != nil {
			s.log.Error().Err(err).Msg("watchlist screen failed")
			out = append(out, fmt.Sprintf("❌ Screening failed: %v", err))
			continue
		}
		out = append(out, notifier.FormatReport(report))
		if report.Cancelled() {
			break
		}
	}
	return out
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	args := fields[1:]

	switch name {
	case "/screen":
		return s.screenCommand(ctx, args)
	case "/watchlist":
		return strings.Join(s.screenChunks(ctx, s.watchlist), "\n")
	case "/preset":
		return s.presetCommand(ctx, args)
	case "/standard":
		return s.standardCommand(args)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) screenCommand(ctx context.Context, args []string) string {
	tickers := batch.ParseTickers(strings.Join(args, " "))
	if len(tickers) == 0 {
		return "Usage: /screen T1 T2 ..."
	}
	report, err := s.runner.Run(ctx, tickers)
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	if len(tickers) == 1 && len(report.Results) == 1 {
		return notifier.FormatResult(&report.Results[0])
	}
	return notifier.FormatReport(report)
}

func (s *Scheduler) presetCommand(ctx context.Context, args []string) string {
	if len(args) == 0 {
		return "Presets: " + strings.Join(s.presetNames(), ", ")
	}
	tickers, ok := s.presets[strings.ToLower(args[0])]
	if !ok {
		return fmt.Sprintf("Unknown preset %q. Presets: %s", args[0], strings.Join(s.presetNames(), ", "))
	}
	return strings.Join(s.screenChunks(ctx, tickers), "\n")
}

func (s *Scheduler) presetNames() []string {
	names := make([]string, 0, len(s.presets))
	for n := range s.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) standardCommand(args []string) string {
	if len(args) == 0 {
		return notifier.FormatStandard(s.registry.Current())
	}
	name, err := standard.ParseName(args[0])
	if err != nil {
		return fmt.Sprintf("❌ %v", err)
	}
	battery := standard.BatteryAAOIFI
	if len(args) > 1 {
		if battery, err = standard.ParseBattery(args[1]); err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
	}

	cfg, err := s.registry.Apply(standard.Request{Standard: name, Battery: battery})
	switch {
	case errors.Is(err, standard.ErrBatchInFlight):
		return "⏳ A screening batch is running; try again when it finishes."
	case err != nil:
		return fmt.Sprintf("❌ %v", err)
	}
	return "Standard switched.\n" + notifier.FormatStandard(cfg)
}

func (s *Scheduler) trySend(text string) {
	if s.sender == nil {
		s.log.Info().Str("report", text).Msg("notifier disabled, report not sent")
		return
	}
	if err := s.sender.SendWithRetry(s.ctx, text, 3); err != nil {
		s.log.Error().Err(err).Msg("send notification failed")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
