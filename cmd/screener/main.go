package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HalalScreener/internal/batch"
	"HalalScreener/internal/collector"
	"HalalScreener/internal/config"
	"HalalScreener/internal/logger"
	"HalalScreener/internal/notifier"
	"HalalScreener/internal/recorder"
	"HalalScreener/internal/scheduler"
	"HalalScreener/internal/screening"
	"HalalScreener/internal/server"
	"HalalScreener/internal/standard"

	"github.com/rs/zerolog"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)

	log := logger.New(logger.Config{Level: "info"})
	if err == nil {
		log = logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	}
	logger.SetGlobalLogger(log)

	if err != nil {
		log.Fatal().Err(err).Str("path", cfgPath).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Msg("HalalScreener starting")

	registry := newRegistry(cfg, log)

	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case "mock":
		fetcher = collector.NewMockFetcher(collector.SampleProfiles()...)
	default:
		opts := []collector.YahooOption{
			collector.WithRateLimit(cfg.DataSource.RateLimit),
			collector.WithTimeout(cfg.DataSource.Timeout),
			collector.WithLogger(log),
		}
		if cfg.DataSource.BaseURL != "" {
			opts = append(opts, collector.WithBaseURL(cfg.DataSource.BaseURL))
		}
		fetcher = collector.NewYahooFetcher(cfg.Proxy, opts...)
	}
	log.Info().Str("provider", fetcher.Name()).Msg("data source ready")

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	runner := batch.NewRunner(fetcher, registry, screening.NewEngine(log), log,
		batch.WithWorkers(cfg.Screening.Workers),
		batch.WithMaxTickers(cfg.Screening.MaxTickers),
		batch.WithSink(rec),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var tn *notifier.TelegramNotifier
	var sender scheduler.Sender
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)
		sender = tn
	} else {
		log.Info().Msg("telegram disabled: no bot token configured")
	}

	sched := scheduler.NewScheduler(ctx, runner, registry, sender, log,
		scheduler.WithWatchlist(cfg.Screening.Watchlist),
		scheduler.WithPresets(cfg.Screening.Presets),
	)
	if err := sched.RegisterAll(cfg.Schedule.ScreenCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("RUN_ON_START enabled, screening watchlist now")
		go sched.RunWatchlistNow()
	}

	srv := server.New(server.Config{
		Addr:     cfg.Server.Addr,
		Log:      log,
		Runner:   runner,
		Registry: registry,
		Recorder: rec,
		DevMode:  cfg.Server.DevMode,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Str("addr", cfg.Server.Addr).Msg("HalalScreener is running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("HalalScreener stopped")
}

// newRegistry restores the persisted selection, falling back to the
// configured one when the state file is absent or no longer valid.
func newRegistry(cfg *config.Config, log zerolog.Logger) *standard.Registry {
	configured, err := cfg.Selection()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid standard selection")
	}
	opts := []standard.Option{
		standard.WithStateFile(cfg.Screening.StateFile),
		standard.WithLogger(log),
	}

	saved, err := standard.LoadSelection(cfg.Screening.StateFile)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Screening.StateFile).Msg("ignoring unreadable standard state")
	}
	if saved != nil {
		reg, err := standard.NewRegistry(*saved, opts...)
		if err == nil {
			log.Info().Str("standard", string(saved.Standard)).Msg("restored standard selection")
			return reg
		}
		log.Warn().Err(err).Msg("saved standard selection rejected, using configured one")
	}

	reg, err := standard.NewRegistry(configured, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize standard registry")
	}
	return reg
}
