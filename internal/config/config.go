package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"HalalScreener/internal/standard"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// DefaultWatchlist is screened by the cron job when no watchlist is configured.
var DefaultWatchlist = []string{
	"AAPL", "MSFT", "GOOGL", "META", "AMZN", "NVDA", "TSLA",
	"JNJ", "PFE", "ABBV", "MRK", "UNH",
	"MCD", "KO", "PEP", "PG", "WMT", "COST",
	"SPUS", "HLAL",
	"JPM", "BAC", "GS", "V", "MA",
}

// DefaultPresets are the quick watchlists offered by /preset.
func DefaultPresets() map[string][]string {
	return map[string][]string{
		"big_tech":     {"AAPL", "MSFT", "GOOGL", "META", "AMZN", "NVDA", "TSLA"},
		"healthcare":   {"JNJ", "PFE", "ABBV", "MRK", "UNH", "BMY", "AMGN"},
		"consumer":     {"WMT", "COST", "TGT", "MCD", "PG", "KO", "SBUX"},
		"islamic_etfs": {"SPUS", "HLAL", "ISDU", "UMMA"},
		"banks":        {"JPM", "BAC", "GS", "WFC", "C"},
		"energy":       {"XOM", "CVX", "COP", "SLB", "OXY"},
	}
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider  string        `yaml:"provider"`
		BaseURL   string        `yaml:"base_url"`
		RateLimit int           `yaml:"rate_limit"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Screening struct {
		Standard   string              `yaml:"standard"`
		Battery    string              `yaml:"battery"`
		Overrides  map[string]float64  `yaml:"overrides"`
		Watchlist  []string            `yaml:"watchlist"`
		Presets    map[string][]string `yaml:"presets"`
		MaxTickers int                 `yaml:"max_tickers"`
		Workers    int                 `yaml:"workers"`
		StateFile  string              `yaml:"state_file"`
	} `yaml:"screening"`
	Schedule struct {
		ScreenCron string `yaml:"screen_cron"`
		RunOnStart bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr    string `yaml:"addr"`
		DevMode bool   `yaml:"dev_mode"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("SCREEN_STANDARD"); v != "" {
		c.Screening.Standard = v
	}
	if v := os.Getenv("SCREEN_BATTERY"); v != "" {
		c.Screening.Battery = v
	}
	if v, ok := os.LookupEnv("SCREEN_CRON"); ok {
		// An explicitly empty SCREEN_CRON disables the job.
		if v == "" {
			v = "-"
		}
		c.Schedule.ScreenCron = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.RunOnStart = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	c.DataSource.Provider = strings.ToLower(c.DataSource.Provider)
	if c.DataSource.RateLimit == 0 {
		c.DataSource.RateLimit = 4
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 15 * time.Second
	}
	if len(c.Screening.Watchlist) == 0 {
		c.Screening.Watchlist = append([]string(nil), DefaultWatchlist...)
	}
	if len(c.Screening.Presets) == 0 {
		c.Screening.Presets = DefaultPresets()
	}
	if c.Screening.MaxTickers == 0 {
		c.Screening.MaxTickers = 30
	}
	if c.Screening.Workers == 0 {
		c.Screening.Workers = 8
	}
	if c.Screening.StateFile == "" {
		c.Screening.StateFile = "data/standard_state.json"
	}
	switch c.Schedule.ScreenCron {
	case "":
		c.Schedule.ScreenCron = "0 0 8 * * 1"
	case "-":
		c.Schedule.ScreenCron = ""
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/halal_screener.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Selection turns the screening section into a standard selection request.
func (c *Config) Selection() (standard.Request, error) {
	name, err := standard.ParseName(c.Screening.Standard)
	if err != nil {
		return standard.Request{}, err
	}
	battery, err := standard.ParseBattery(c.Screening.Battery)
	if err != nil {
		return standard.Request{}, err
	}
	return standard.Request{Standard: name, Battery: battery, Overrides: c.Screening.Overrides}, nil
}

// TelegramEnabled reports whether a bot token is configured.
func (c *Config) TelegramEnabled() bool { return c.Telegram.BotToken != "" }

var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks that all values are usable.
func (c *Config) Validate() error {
	if c.TelegramEnabled() && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	default:
		return fmt.Errorf("data_source.provider must be yahoo or mock, got %q", c.DataSource.Provider)
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout must not be negative")
	}
	if c.Screening.MaxTickers < 0 {
		return fmt.Errorf("screening.max_tickers must be positive")
	}
	if c.Screening.Workers < 0 {
		return fmt.Errorf("screening.workers must be positive")
	}
	req, err := c.Selection()
	if err != nil {
		return fmt.Errorf("screening: %w", err)
	}
	if _, err := req.Config(); err != nil {
		return fmt.Errorf("screening: %w", err)
	}
	if c.Schedule.ScreenCron != "" {
		if _, err := cronParser.Parse(c.Schedule.ScreenCron); err != nil {
			return fmt.Errorf("schedule.screen_cron: %w", err)
		}
	}
	return nil
}
