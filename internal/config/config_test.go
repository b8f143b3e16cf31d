package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tradebot.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ALPACA_API_KEY", "ALPACA_API_SECRET", "APCA_API_KEY_ID",
		"APCA_API_SECRET_KEY", "DATA_DIR", "SQLITE_PATH", "LOG_LEVEL", "WEBHOOK_URL",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadFull(t *testing.T) {
	clearEnvOverrides(t)

	path := writeConfigFile(t, `
storage:
  data_dir: "/tmp/tradebot/data"
  sqlite_path: "/tmp/tradebot/tradebot.db"
alpaca:
  api_key: "test-key"
  api_secret: "test-secret"
  base_url: "https://paper-api.alpaca.markets"
  data_url: "https://data.alpaca.markets"
logging:
  level: "debug"
trading:
  broker: "paper"
  risk_manager: "advanced"
  strategy: "sma-cross"
  symbol: "AAPL"
  initial_balance: 25000
  tick_interval: 10s
risk:
  max_position_size: 200
  stop_loss_percent: 0.05
  max_open_positions: 10
  max_total_exposure: 500000
  leverage: 3.0
feed:
  mode: "live"
  cache_ttl: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	// -- Storage --
	if cfg.Storage.DataDir != "/tmp/tradebot/data" {
		t.Errorf("Storage.DataDir = %q, want %q", cfg.Storage.DataDir, "/tmp/tradebot/data")
	}

	// -- Trading --
	if cfg.Trading.Broker != "paper" {
		t.Errorf("Trading.Broker = %q, want %q", cfg.Trading.Broker, "paper")
	}
	if cfg.Trading.InitialBalance != 25000 {
		t.Errorf("Trading.InitialBalance = %v, want %v", cfg.Trading.InitialBalance, 25000.0)
	}
	if cfg.Trading.TickInterval != 10*time.Second {
		t.Errorf("Trading.TickInterval = %v, want %v", cfg.Trading.TickInterval, 10*time.Second)
	}

	// -- Risk --
	if cfg.Risk.MaxPositionSize != 200 {
		t.Errorf("Risk.MaxPositionSize = %v, want %v", cfg.Risk.MaxPositionSize, 200.0)
	}
	if cfg.Risk.StopLossPercent != 0.05 {
		t.Errorf("Risk.StopLossPercent = %v, want %v", cfg.Risk.StopLossPercent, 0.05)
	}
	if cfg.Risk.Leverage != 3.0 {
		t.Errorf("Risk.Leverage = %v, want %v", cfg.Risk.Leverage, 3.0)
	}

	// -- Feed --
	if cfg.Feed.CacheTTL != 30*time.Second {
		t.Errorf("Feed.CacheTTL = %v, want %v", cfg.Feed.CacheTTL, 30*time.Second)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnvOverrides(t)

	cfg, err := Load(writeConfigFile(t, `
trading:
  symbol: "AAPL"
`))
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Trading.Broker != "paper" {
		t.Errorf("default Trading.Broker = %q, want %q", cfg.Trading.Broker, "paper")
	}
	if cfg.Trading.InitialBalance != 10000 {
		t.Errorf("default Trading.InitialBalance = %v, want 10000", cfg.Trading.InitialBalance)
	}
	if cfg.Risk.MaxPositionSize != 100 {
		t.Errorf("default Risk.MaxPositionSize = %v, want 100", cfg.Risk.MaxPositionSize)
	}
	if cfg.Risk.StopLossPercent != 0.02 {
		t.Errorf("default Risk.StopLossPercent = %v, want 0.02", cfg.Risk.StopLossPercent)
	}
	if cfg.Risk.MaxOpenPositions != 50 {
		t.Errorf("default Risk.MaxOpenPositions = %v, want 50", cfg.Risk.MaxOpenPositions)
	}
	if cfg.Risk.MaxTotalExposure != 1000000 {
		t.Errorf("default Risk.MaxTotalExposure = %v, want 1000000", cfg.Risk.MaxTotalExposure)
	}
	if cfg.Risk.Leverage != 2.0 {
		t.Errorf("default Risk.Leverage = %v, want 2.0", cfg.Risk.Leverage)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnvOverrides(t)

	path := writeConfigFile(t, `
alpaca:
  api_key: "yaml-key"
  api_secret: "yaml-secret"
storage:
  data_dir: "/original/data"
`)

	os.Setenv("ALPACA_API_KEY", "env-key")
	os.Setenv("DATA_DIR", "/env/data")
	defer os.Unsetenv("ALPACA_API_KEY")
	defer os.Unsetenv("DATA_DIR")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Alpaca.APIKey != "env-key" {
		t.Errorf("Alpaca.APIKey = %q, want %q (env override)", cfg.Alpaca.APIKey, "env-key")
	}
	// api_secret should remain from YAML since no env override was set.
	if cfg.Alpaca.APISecret != "yaml-secret" {
		t.Errorf("Alpaca.APISecret = %q, want %q (from YAML)", cfg.Alpaca.APISecret, "yaml-secret")
	}
	if cfg.Storage.DataDir != "/env/data" {
		t.Errorf("Storage.DataDir = %q, want %q (env override)", cfg.Storage.DataDir, "/env/data")
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	clearEnvOverrides(t)

	cases := []struct {
		name string
		yaml string
	}{
		{"unknown broker", "trading:\n  broker: \"robinhood\"\n"},
		{"unknown risk manager", "trading:\n  risk_manager: \"yolo\"\n"},
		{"unknown feed mode", "feed:\n  mode: \"replay\"\n"},
		{"leverage below one", "risk:\n  leverage: 0.5\n"},
		{"stop loss out of range", "risk:\n  stop_loss_percent: 1.5\n"},
		{"alpaca broker without credentials", "trading:\n  broker: \"alpaca\"\n"},
		{"negative order quantity", "trading:\n  order_quantity: -5\n"},
	}

	for _, tc := range cases {
		if _, err := Load(writeConfigFile(t, tc.yaml)); err == nil {
			t.Errorf("%s: Load() should have failed", tc.name)
		}
	}
}
