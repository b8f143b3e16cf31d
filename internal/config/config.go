package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the trading bot.
type Config struct {
	Storage Storage       `yaml:"storage"`
	Alpaca  Alpaca        `yaml:"alpaca"`
	Logging Logging       `yaml:"logging"`
	Trading TradingConfig `yaml:"trading"`
	Risk    RiskConfig    `yaml:"risk"`
	Feed    FeedConfig    `yaml:"feed"`
	Live    LiveConfig    `yaml:"live"`
	API     APIConfig     `yaml:"api"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds credentials and endpoints for the Alpaca broker API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	BaseURL   string `yaml:"base_url"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level string `yaml:"level"`
}

// TradingConfig selects the broker, strategy, and loop parameters.
type TradingConfig struct {
	Broker         string        `yaml:"broker"`       // "paper" | "alpaca"
	RiskManager    string        `yaml:"risk_manager"` // "basic" | "advanced"
	Strategy       string        `yaml:"strategy"`
	Symbol         string        `yaml:"symbol"`
	OrderQuantity  float64       `yaml:"order_quantity"`
	InitialBalance float64       `yaml:"initial_balance"`
	TickInterval   time.Duration `yaml:"tick_interval"`
}

// RiskConfig is the immutable risk-limit snapshot handed to the risk manager
// at construction time.
type RiskConfig struct {
	MaxPositionSize  float64 `yaml:"max_position_size"`
	StopLossPercent  float64 `yaml:"stop_loss_percent"`
	MaxOpenPositions int     `yaml:"max_open_positions"`
	MaxTotalExposure float64 `yaml:"max_total_exposure"`
	Leverage         float64 `yaml:"leverage"`
}

// FeedConfig controls the market data read path.
type FeedConfig struct {
	Mode         string        `yaml:"mode"` // "live" | "backtest"
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// LiveConfig configures the websocket broadcast server.
type LiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// APIConfig configures the read-only REST API.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// NotifyConfig configures the outbound trade webhook.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url"`
	MaxRetries int    `yaml:"max_retries"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies environment variable overrides and defaults, and
// validates the result. Configuration errors fail here, before any component
// is constructed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with all defaults applied and no file loaded.
// Used by tests and the backtest runner.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "tradebot.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Trading.Broker == "" {
		c.Trading.Broker = "paper"
	}
	if c.Trading.Broker == "real" {
		// Accepted alias: the real brokerage backend is Alpaca.
		c.Trading.Broker = "alpaca"
	}
	if c.Trading.RiskManager == "" {
		c.Trading.RiskManager = "advanced"
	}
	if c.Trading.OrderQuantity == 0 {
		c.Trading.OrderQuantity = 1
	}
	if c.Trading.InitialBalance == 0 {
		c.Trading.InitialBalance = 10000
	}
	if c.Trading.TickInterval == 0 {
		c.Trading.TickInterval = 5 * time.Second
	}
	if c.Risk.MaxPositionSize == 0 {
		c.Risk.MaxPositionSize = 100
	}
	if c.Risk.StopLossPercent == 0 {
		c.Risk.StopLossPercent = 0.02
	}
	if c.Risk.MaxOpenPositions == 0 {
		c.Risk.MaxOpenPositions = 50
	}
	if c.Risk.MaxTotalExposure == 0 {
		c.Risk.MaxTotalExposure = 1000000
	}
	if c.Risk.Leverage == 0 {
		c.Risk.Leverage = 2.0
	}
	if c.Feed.Mode == "" {
		c.Feed.Mode = "live"
	}
	if c.Feed.FetchTimeout == 0 {
		c.Feed.FetchTimeout = 10 * time.Second
	}
	if c.Live.Addr == "" {
		c.Live.Addr = ":6789"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	if c.Notify.MaxRetries == 0 {
		c.Notify.MaxRetries = 3
	}
}

// Validate checks for configuration values that would leave the pipeline in
// an unusable state. It is called by Load so a bad config never reaches the
// trading loop.
func (c *Config) Validate() error {
	switch c.Trading.Broker {
	case "paper", "alpaca":
	default:
		return fmt.Errorf("unknown broker %q (want \"paper\" or \"alpaca\")", c.Trading.Broker)
	}

	switch c.Trading.RiskManager {
	case "basic", "advanced":
	default:
		return fmt.Errorf("unknown risk manager %q (want \"basic\" or \"advanced\")", c.Trading.RiskManager)
	}

	switch c.Feed.Mode {
	case "live", "backtest":
	default:
		return fmt.Errorf("unknown feed mode %q (want \"live\" or \"backtest\")", c.Feed.Mode)
	}

	if c.Risk.Leverage < 1 {
		return fmt.Errorf("leverage %v must be >= 1", c.Risk.Leverage)
	}
	if c.Risk.StopLossPercent < 0 || c.Risk.StopLossPercent > 1 {
		return fmt.Errorf("stop_loss_percent %v must be within [0, 1]", c.Risk.StopLossPercent)
	}
	if c.Trading.InitialBalance < 0 {
		return fmt.Errorf("initial_balance %v must not be negative", c.Trading.InitialBalance)
	}
	if c.Trading.OrderQuantity <= 0 {
		return fmt.Errorf("order_quantity %v must be positive", c.Trading.OrderQuantity)
	}

	if c.Trading.Broker == "alpaca" && (c.Alpaca.APIKey == "" || c.Alpaca.APISecret == "") {
		return fmt.Errorf("broker %q requires alpaca api_key and api_secret", c.Trading.Broker)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Notify.WebhookURL = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Alpaca.BaseURL = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	// Canonical Alpaca env vars recognised by the SDK win over the rest.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
