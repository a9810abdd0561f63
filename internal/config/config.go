package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"GapSentinel/internal/collector"
	"GapSentinel/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Exchange struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"exchange"`
	Market struct {
		Symbols    []string `yaml:"symbols"`
		TopN       int      `yaml:"top_n"`
		Watch      int      `yaml:"watch"`
		QuoteAsset string   `yaml:"quote_asset"`
		Exclude    []string `yaml:"exclude"`
		Timeframe  string   `yaml:"timeframe"`
		Limit      int      `yaml:"limit"`
		CSVDir     string   `yaml:"csv_dir"`
	} `yaml:"market"`
	Strategy struct {
		Ladder          []strategy.Stage `yaml:"ladder"`
		TakeProfit      float64          `yaml:"take_profit"`
		InitialQuantity float64          `yaml:"initial_quantity"`
	} `yaml:"strategy"`
	Schedule struct {
		ReplayCron string `yaml:"replay_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Workers int    `yaml:"workers"`
	Proxy   string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults and env still apply.
func Load(path string) (*Config, error) {
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

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		cfg.Exchange.BaseURL = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Market.Symbols = splitList(v)
	}
	if v := os.Getenv("CSV_DIR"); v != "" {
		cfg.Market.CSVDir = v
	}
	if v := os.Getenv("REPLAY_CRON"); v != "" {
		cfg.Schedule.ReplayCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("WATCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Market.Watch = n
		}
	}
	if v := os.Getenv("WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}

	// Defaults
	if cfg.Exchange.BaseURL == "" {
		cfg.Exchange.BaseURL = collector.DefaultBinanceFuturesURL
	}
	if cfg.Market.TopN == 0 {
		cfg.Market.TopN = 10
	}
	if cfg.Market.Watch == 0 {
		cfg.Market.Watch = 5
	}
	if cfg.Market.QuoteAsset == "" {
		cfg.Market.QuoteAsset = "USDT"
	}
	if cfg.Market.Exclude == nil {
		cfg.Market.Exclude = []string{"BUSD"}
	}
	if cfg.Market.Timeframe == "" {
		cfg.Market.Timeframe = "15m"
	}
	if cfg.Market.Limit == 0 {
		cfg.Market.Limit = 100
	}
	if len(cfg.Strategy.Ladder) == 0 {
		cfg.Strategy.Ladder = append([]strategy.Stage(nil), strategy.DefaultLadder...)
	}
	if cfg.Strategy.TakeProfit == 0 {
		cfg.Strategy.TakeProfit = strategy.DefaultTakeProfit
	}
	if cfg.Strategy.InitialQuantity == 0 {
		cfg.Strategy.InitialQuantity = strategy.DefaultInitialQuantity
	}
	if cfg.Schedule.ReplayCron == "" {
		cfg.Schedule.ReplayCron = "0 */15 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/gap_sentinel.db"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}

	return cfg, nil
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if _, err := collector.ParseTimeframe(c.Market.Timeframe); err != nil {
		return fmt.Errorf("market.timeframe: %w", err)
	}
	if c.Market.Limit < 3 || c.Market.Limit > 1500 {
		return fmt.Errorf("market.limit must be within [3, 1500], got %d", c.Market.Limit)
	}
	if c.Market.TopN < 1 {
		return fmt.Errorf("market.top_n must be positive")
	}
	if c.Market.Watch < 1 || c.Market.Watch > c.Market.TopN {
		return fmt.Errorf("market.watch must be within [1, top_n], got %d", c.Market.Watch)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.Schedule.ReplayCron); err != nil {
		return fmt.Errorf("schedule.replay_cron: %w", err)
	}
	if err := c.StrategyParams().Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	return nil
}

// StrategyParams returns the position ladder configured under strategy.
func (c *Config) StrategyParams() strategy.Params {
	return strategy.Params{
		Ladder:          append([]strategy.Stage(nil), c.Strategy.Ladder...),
		TakeProfit:      c.Strategy.TakeProfit,
		InitialQuantity: c.Strategy.InitialQuantity,
	}
}

// CollectorOptions returns the symbol selection and window settings.
func (c *Config) CollectorOptions() collector.Options {
	return collector.Options{
		Symbols:    c.Market.Symbols,
		QuoteAsset: c.Market.QuoteAsset,
		Exclude:    c.Market.Exclude,
		TopN:       c.Market.TopN,
		Watch:      c.Market.Watch,
		Timeframe:  c.Market.Timeframe,
		Limit:      c.Market.Limit,
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
